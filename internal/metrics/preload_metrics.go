package metrics

import (
	"fmt"
	"time"
)

// PreloadReport summarizes one cache preload request.
type PreloadReport struct {
	StartTime      time.Time `json:"-"`
	TotalLatencyMs float64   `json:"totalLatencyMs"`
	Requested      int       `json:"requested"`
	Loaded         []string  `json:"loaded"`
	Failed         []string  `json:"failed,omitempty"`
	TotalSize      int64     `json:"totalSize"`
}

func NewPreloadReport(requested int) *PreloadReport {
	return &PreloadReport{
		StartTime: time.Now(),
		Requested: requested,
		Loaded:    make([]string, 0, requested),
	}
}

func (r *PreloadReport) Add(filename string, size int64, err error) {
	if err != nil {
		r.Failed = append(r.Failed, filename)
		return
	}
	r.Loaded = append(r.Loaded, filename)
	r.TotalSize += size
}

// Finish stops the clock and records the outcome.
func (r *PreloadReport) Finish() {
	r.TotalLatencyMs = float64(time.Since(r.StartTime).Microseconds()) / 1000
	RecordPreload(len(r.Loaded), len(r.Failed))
}

func (r *PreloadReport) Complete() bool {
	return len(r.Failed) == 0
}

// Summary returns a human-readable line for logs.
func (r *PreloadReport) Summary() string {
	return fmt.Sprintf("%d/%d assets preloaded, %.2f MB in %.2f ms",
		len(r.Loaded), r.Requested, float64(r.TotalSize)/(1024*1024), r.TotalLatencyMs)
}
