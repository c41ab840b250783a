package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetup_JSON(t *testing.T) {
	defer func(prev zerolog.Logger) { log.Logger = prev }(log.Logger)

	var buf bytes.Buffer
	logger := Setup(&buf, "warn", "json", false)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "store").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if entry["message"] != "shown" || entry["component"] != "store" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestSetup_VerboseForcesDebug(t *testing.T) {
	defer func(prev zerolog.Logger) { log.Logger = prev }(log.Logger)

	var buf bytes.Buffer
	Setup(&buf, "error", "json", true)

	log.Debug().Msg("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("expected debug output with verbose, got %q", buf.String())
	}
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	defer func(prev zerolog.Logger) { log.Logger = prev }(log.Logger)

	var buf bytes.Buffer
	logger := Setup(&buf, "chatty", "console", false)

	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", logger.GetLevel())
	}
	logger.Info().Msg("console line")
	if !strings.Contains(buf.String(), "console line") {
		t.Errorf("expected console output, got %q", buf.String())
	}
}
