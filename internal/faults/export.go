package faults

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// DebugReport is the exportable diagnostic bundle: the bounded error
// history plus summary counts per category.
type DebugReport struct {
	GeneratedAt time.Time        `yaml:"generated_at"`
	Totals      map[Category]int `yaml:"totals"`
	Records     []Record         `yaml:"records"`
}

// BuildReport assembles a report from the history.
func BuildReport(h *History) DebugReport {
	records := h.Snapshot()
	totals := make(map[Category]int, len(records))
	for _, r := range records {
		totals[r.Category]++
	}
	return DebugReport{
		GeneratedAt: time.Now().UTC(),
		Totals:      totals,
		Records:     records,
	}
}

// WriteReport renders the report as YAML.
func WriteReport(w io.Writer, report DebugReport) error {
	enc := yaml.NewEncoder(w)
	defer func() {
		_ = enc.Close()
	}()
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode debug report: %w", err)
	}
	return nil
}
