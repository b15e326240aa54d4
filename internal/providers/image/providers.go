// Package image holds the image vendors driven by the external job loop.
package image

import "github.com/scandicwellnesseu-sys/ultragenerationpro/internal/jobs"

var (
	_ jobs.Provider = (*DallE)(nil)
	_ jobs.Provider = (*Stability)(nil)
	_ jobs.Provider = (*Replicate)(nil)
	_ jobs.Provider = (*Ideogram)(nil)
	_ jobs.Provider = (*Synthetic)(nil)
)
