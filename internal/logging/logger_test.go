package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lathe/internal/logging"
	"lathe/internal/services"
)

func TestNewWritesToConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "lathe.log")

	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("pipeline starting", logging.String("version", "1.2.3"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "pipeline starting") {
		t.Fatalf("expected log line in file, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStage(ctx, "build")
	ctx = services.WithVersion(ctx, "2.0.0")

	fields := logging.ContextFields(ctx)
	if len(fields) != 3 {
		t.Fatalf("expected 3 context fields, got %d", len(fields))
	}

	keys := map[string]bool{}
	for _, f := range fields {
		keys[f.Key] = true
	}
	for _, want := range []string{logging.FieldRunID, logging.FieldStage, logging.FieldVersion} {
		if !keys[want] {
			t.Errorf("missing context field %q", want)
		}
	}
}
