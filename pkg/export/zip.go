package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// File is one archive member.
type File struct {
	Name string
	Data []byte
}

// Archive zips files in order.
func Archive(files []File) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, fmt.Errorf("export: add %s: %w", f.Name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("export: write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("export: close archive: %w", err)
	}
	return buf.Bytes(), nil
}

// BatchArchive packs done and failed tasks as two CSV files.
func BatchArchive(done, failed []domain.GenerationTask) ([]byte, error) {
	doneCSV, err := CSV(done)
	if err != nil {
		return nil, err
	}
	errorsCSV, err := CSV(failed)
	if err != nil {
		return nil, err
	}
	return Archive([]File{
		{Name: "done.csv", Data: doneCSV},
		{Name: "errors.csv", Data: errorsCSV},
	})
}
