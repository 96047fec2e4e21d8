package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"armature/internal/config"
	"armature/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello", logging.String(logging.FieldComponent, "test"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"hello"`) {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHeaderCarriesComponentAndSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("phase completed",
		logging.String(logging.FieldComponent, "build"),
		logging.String(logging.FieldIdentity, "arm_L0"),
		logging.String(logging.FieldPhase, "objects"),
		logging.String(logging.FieldEventType, "phase_complete"),
		logging.String(logging.FieldComponentID, "9b0c"),
	)

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if !strings.Contains(lines[0], "INFO [build] arm_L0 (objects) – phase completed") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if strings.Contains(lines[0], ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", lines[0])
	}
	if !strings.Contains(out, "    - Event: phase_complete") {
		t.Fatalf("expected highlighted event field, got %q", out)
	}
	if strings.Contains(out, "9b0c") {
		t.Fatalf("component id should be hidden at info level, got %q", out)
	}
	if !strings.Contains(out, "1 more field hidden") {
		t.Fatalf("expected hidden field summary, got %q", out)
	}
}

func TestConsoleDebugListsEveryField(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("guide created", logging.String(logging.FieldComponentID, "9b0c"), logging.Int("anchors", 3))

	out := buf.String()
	for _, want := range []string{"DEBUG", "component_id: 9b0c", "anchors: 3", ".go:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestWithContextStampsFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithBuildID(context.Background(), "build-1")
	ctx = logging.WithPhase(ctx, "operators")
	ctx = logging.WithIdentity(ctx, "leg_R1")
	ctx = logging.WithStep(ctx, "tidy")
	logging.WithContext(ctx, base).Info("custom step executed", logging.Elapsed(time.Now()))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json line: %v", err)
	}
	want := map[string]string{
		logging.FieldBuildID:  "build-1",
		logging.FieldPhase:    "operators",
		logging.FieldIdentity: "leg_R1",
		logging.FieldStep:     "tidy",
		"msg":                 "custom step executed",
		"level":               "info",
	}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("field %s = %v, want %q", key, entry[key], value)
		}
	}
	if _, ok := entry["duration"]; !ok {
		t.Fatal("expected duration field")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "custom step skipped", "custom_step_misconfigured",
		logging.String(logging.FieldImpact, "step did not run"))
	logging.ErrorWithContext(logger, "build failed", "build_failed", logging.Error(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(lines))
	}
	var warn, failure map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &warn); err != nil {
		t.Fatalf("decode warn: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &failure); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if warn[logging.FieldEventType] != "custom_step_misconfigured" || warn[logging.FieldImpact] != "step did not run" {
		t.Fatalf("unexpected warn fields: %v", warn)
	}
	if warn[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error hint")
	}
	if failure["error"] != "boom" || failure[logging.FieldEventType] != "build_failed" {
		t.Fatalf("unexpected error fields: %v", failure)
	}
}

func TestContextFieldsEmpty(t *testing.T) {
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	if _, ok := logging.PhaseFromContext(context.Background()); ok {
		t.Fatal("phase should be absent")
	}
}
