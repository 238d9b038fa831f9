package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"webtally/internal/platform/config"
	"webtally/internal/platform/logging"
)

func TestJSONFormatEmitsStructuredLines(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger := logging.New(config.LogConfig{Level: "debug", Format: "json"}, buf)
	logger.Named("ledger").Warn("persist ledger failed", "attempt", 2)

	line := strings.TrimSpace(buf.String())
	decoded := map[string]any{}
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if decoded["@message"] != "persist ledger failed" {
		t.Fatalf("unexpected message: %v", decoded["@message"])
	}
	if decoded["@module"] != "webtally.ledger" {
		t.Fatalf("unexpected module: %v", decoded["@module"])
	}
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger := logging.New(config.LogConfig{Level: "chatty"}, buf)
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
