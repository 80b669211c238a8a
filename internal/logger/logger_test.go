package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: FormatJSON, Output: &buf})
	log.Infow("load_finished", "appliance", "washer")
	_ = log.Sync()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %q (%v)", buf.String(), err)
	}
	if entry["msg"] != "load_finished" || entry["appliance"] != "washer" || entry["app"] != "laundrybot" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestNew_ConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Output: &buf})
	log.Infow("dropped")
	log.Warnw("kept")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "WARN") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestGet_FirstOptionsStick(t *testing.T) {
	a := Get(Options{Level: "error"})
	b := Get(Options{Level: "debug"})
	if a != b {
		t.Fatalf("expected the same logger instance")
	}
	if a.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("level from the first call should stick")
	}
}
