package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTidyHandler_Handle(t *testing.T) {
	ts := time.Date(2025, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "run-123",
			level:   slog.LevelInfo,
			message: "snapshot stored",
			want:    "2025-06-15T14:30:45Z\tINFO\trun-123\tsnapshot stored\n",
		},
		{
			name:    "warn level",
			runID:   "run-456",
			level:   slog.LevelWarn,
			message: "target blocked",
			want:    "2025-06-15T14:30:45Z\tWARN\trun-456\ttarget blocked\n",
		},
		{
			name:    "with record attrs",
			runID:   "run-789",
			level:   slog.LevelInfo,
			message: "executed",
			attrs:   []slog.Attr{slog.String("target", "/var/cache/x"), slog.Int("size", 42)},
			want:    "2025-06-15T14:30:45Z\tINFO\trun-789\texecuted\ttarget=/var/cache/x\tsize=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &tidyHandler{w: &buf, runID: tt.runID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTidyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &tidyHandler{w: &buf, runID: "run-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "backup")}).(*tidyHandler)

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "stored", 0)
	r.AddAttrs(slog.String("op_id", "op-1"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=backup") {
		t.Errorf("expected pre-set attr component=backup, got: %q", got)
	}
	if !strings.Contains(got, "op_id=op-1") {
		t.Errorf("expected record attr op_id=op-1, got: %q", got)
	}
}

func TestTidyHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	var buf bytes.Buffer
	h := &tidyHandler{w: &buf, runID: "run-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*tidyHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("derived handler attrs = %d, want 2", len(h2.attrs))
	}
}

func TestTidyHandler_WithGroupIsNoop(t *testing.T) {
	var buf bytes.Buffer
	h := &tidyHandler{w: &buf, runID: "run-1"}
	if got := h.WithGroup("group"); got != h {
		t.Error("WithGroup should return the handler unchanged")
	}
}
