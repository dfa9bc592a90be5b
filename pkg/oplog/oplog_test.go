package oplog

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	original := Event{
		Timestamp:  ts,
		ContextID:  "9f1c2ad4-7c2b-4c58-9d5e-0e1f2a3b4c5d",
		Kind:       KindOperation,
		Generation: 9,
		Op: &OpEvent{
			Channel:  2,
			Op:       "WRITE",
			Arg:      1,
			Result:   1,
			Status:   0,
			Attempts: 1,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ContextID != original.ContextID {
		t.Errorf("ContextID: got %q, want %q", decoded.ContextID, original.ContextID)
	}
	if decoded.Kind != original.Kind {
		t.Errorf("Kind: got %v, want %v", decoded.Kind, original.Kind)
	}
	if decoded.Generation != original.Generation {
		t.Errorf("Generation: got %d, want %d", decoded.Generation, original.Generation)
	}
	if decoded.Op == nil {
		t.Fatal("Op payload missing after decode")
	}
	if *decoded.Op != *original.Op {
		t.Errorf("Op: got %+v, want %+v", *decoded.Op, *original.Op)
	}
}

func TestRedactedOpCarriesNoArg(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		ContextID: "ctx",
		Kind:      KindOperation,
		Op: &OpEvent{
			Channel:  7,
			Op:       "WRITE",
			Redacted: true,
			Status:   0,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if !decoded.Op.Redacted {
		t.Error("Redacted flag lost in round trip")
	}
	if decoded.Op.Arg != 0 {
		t.Errorf("redacted op must carry no argument, got %d", decoded.Op.Arg)
	}
}

func TestFileLoggerAndReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.clog")

	fl, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}

	events := []Event{
		{Timestamp: time.Now(), ContextID: "a", Kind: KindDetection,
			Detection: &DetectionEvent{Product: "Legion 9i", Marker: "Legion 9i", Confidence: "exact"}},
		{Timestamp: time.Now(), ContextID: "a", Kind: KindOperation,
			Op: &OpEvent{Channel: 1, Op: "READ", Status: 0, Result: 55, Attempts: 1}},
		{Timestamp: time.Now(), ContextID: "a", Kind: KindOperation,
			Op: &OpEvent{Channel: 2, Op: "WRITE", Arg: 9, Status: 3, Error: "timeout", Attempts: 3}},
	}
	for _, e := range events {
		fl.Log(e)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Logging after close must be a silent no-op.
	fl.Log(events[0])

	t.Run("ReadAll", func(t *testing.T) {
		r, err := NewReader(path)
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		defer r.Close()

		var count int
		for {
			_, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			count++
		}
		if count != len(events) {
			t.Errorf("read %d events, want %d", count, len(events))
		}
	})

	t.Run("FilterFailedOps", func(t *testing.T) {
		r, err := NewFilteredReader(path, Filter{FailedOnly: true})
		if err != nil {
			t.Fatalf("NewFilteredReader() error = %v", err)
		}
		defer r.Close()

		e, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if e.Op == nil || e.Op.Error != "timeout" {
			t.Errorf("expected the failed write, got %+v", e)
		}
		if _, err := r.Next(); err != io.EOF {
			t.Errorf("expected EOF after one failed op, got %v", err)
		}
	})

	t.Run("FilterChannel", func(t *testing.T) {
		ch := uint16(1)
		r, err := NewFilteredReader(path, Filter{Channel: &ch})
		if err != nil {
			t.Fatalf("NewFilteredReader() error = %v", err)
		}
		defer r.Close()

		e, err := r.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if e.Op == nil || e.Op.Channel != 1 {
			t.Errorf("expected channel 1 op, got %+v", e)
		}
	})
}

func TestSlogAdapterRedaction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	adapter.Log(Event{
		Timestamp: time.Now(),
		ContextID: "ctx",
		Kind:      KindOperation,
		Op:        &OpEvent{Channel: 7, Op: "WRITE", Arg: 0xdead, Redacted: true, Status: 0},
	})

	out := buf.String()
	if strings.Contains(out, "dead") || strings.Contains(out, "57005") {
		t.Errorf("sensitive argument leaked into slog output: %s", out)
	}
	if !strings.Contains(out, "redacted=true") {
		t.Errorf("redaction marker missing from slog output: %s", out)
	}
}

func TestMultiLogger(t *testing.T) {
	var a, b countingLogger
	ml := NewMultiLogger(&a, &b)
	ml.Log(Event{Kind: KindState})
	ml.Log(Event{Kind: KindState})
	if a.n != 2 || b.n != 2 {
		t.Errorf("multi logger fanout wrong: %d, %d", a.n, b.n)
	}
}

type countingLogger struct{ n int }

func (c *countingLogger) Log(Event) { c.n++ }
