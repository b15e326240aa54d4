// Package export renders batch generation results for download.
package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// Header is the column order of every CSV written by this package.
var Header = []string{
	"index",
	"task_id",
	"title",
	"status",
	"provider",
	"headline",
	"body",
	"meta_description",
	"feature_bullets",
	"seo_keywords",
	"error_kind",
	"error_message",
}

// WriteCSV writes one row per task, ordered by input index.
func WriteCSV(w io.Writer, tasks []domain.GenerationTask) error {
	sorted := append([]domain.GenerationTask(nil), tasks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, task := range sorted {
		if err := cw.Write(row(task)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV is WriteCSV into memory.
func CSV(tasks []domain.GenerationTask) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tasks); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func row(task domain.GenerationTask) []string {
	out := make([]string, len(Header))
	out[0] = strconv.Itoa(task.Index)
	out[1] = task.ID
	out[2] = task.Input.Title
	out[3] = string(task.Status)
	if c := task.Result; c != nil {
		out[4] = c.Provider
		out[5] = c.Headline
		out[6] = c.Body
		out[7] = c.MetaDescription
		out[8] = strings.Join(c.FeatureBullets, " | ")
		out[9] = strings.Join(c.SEOKeywords, ", ")
	}
	if e := task.Error; e != nil {
		out[10] = string(e.Kind)
		out[11] = e.Message
	}
	return out
}
