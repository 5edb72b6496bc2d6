package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	FindingsTotal.WithLabelValues("Critical").Set(3)
	MovesTotal.WithLabelValues("ok").Inc()

	path := filepath.Join(t.TempDir(), "moduledeps.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{`moduledeps_findings{kind="Critical"} 3`, `moduledeps_moves_total{outcome="ok"}`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, out)
		}
	}
}

func TestWriteTextfileEmptyPath(t *testing.T) {
	if err := WriteTextfile(""); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}

func TestSetupTracingDisabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "", false)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}
