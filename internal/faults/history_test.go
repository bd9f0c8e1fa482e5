package faults

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryBound(t *testing.T) {
	t.Run("appending past the cap evicts the oldest", func(t *testing.T) {
		h := NewHistory(3)
		for i := 0; i < 5; i++ {
			h.Append(Record{Category: CategoryNetwork, Message: fmt.Sprintf("err-%d", i)})
		}

		records := h.Snapshot()
		require.Len(t, records, 3)
		assert.Equal(t, "err-2", records[0].Message)
		assert.Equal(t, "err-4", records[2].Message)
		assert.Equal(t, 3, h.Len())
	})

	t.Run("observe classifies and records", func(t *testing.T) {
		h := NewHistory(10)
		cat := h.Observe(errors.New("blocked by CORS policy"), "websocket")

		assert.Equal(t, CategoryCORS, cat)
		records := h.Snapshot()
		require.Len(t, records, 1)
		assert.Equal(t, CategoryCORS, records[0].Category)
		assert.Equal(t, SeverityWarning, records[0].Severity)
		assert.Equal(t, "websocket", records[0].Context)
		assert.False(t, records[0].Timestamp.IsZero())
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		h := NewHistory(10)
		h.Append(Record{Message: "a"})

		snap := h.Snapshot()
		snap[0].Message = "mutated"
		assert.Equal(t, "a", h.Snapshot()[0].Message)
	})
}

func TestDebugReport(t *testing.T) {
	t.Run("totals count per category", func(t *testing.T) {
		h := NewHistory(10)
		h.Observe(errors.New("connection refused"), "http")
		h.Observe(errors.New("connection reset"), "http")
		h.Observe(errors.New("blocked by CORS policy"), "websocket")

		report := BuildReport(h)
		assert.Equal(t, 2, report.Totals[CategoryNetwork])
		assert.Equal(t, 1, report.Totals[CategoryCORS])
		assert.Len(t, report.Records, 3)
	})

	t.Run("renders as yaml", func(t *testing.T) {
		h := NewHistory(10)
		h.Observe(errors.New("request timed out"), "http")

		var sb strings.Builder
		require.NoError(t, WriteReport(&sb, BuildReport(h)))
		out := sb.String()
		assert.Contains(t, out, "generated_at:")
		assert.Contains(t, out, "timeout")
		assert.Contains(t, out, "request timed out")
	})
}
