package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriter_EmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf)

	logger.Info("booking created", "appointment_id", "apt-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "booking created" {
		t.Fatalf("unexpected msg: %v", record["msg"])
	}
	if record["appointment_id"] != "apt-1" {
		t.Fatalf("expected appointment_id attribute, got %v", record)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("warn", &buf)

	logger.Debug("noise")
	logger.Info("more noise")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be suppressed at warn level, got %q", buf.String())
	}

	logger.Warn("slot conflict retry")
	if buf.Len() == 0 {
		t.Fatal("expected warn record to be emitted")
	}
}

func TestWith_AttachesAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("info", &buf).With("component", "booking")

	logger.Info("reserved")

	if !strings.Contains(buf.String(), `"component":"booking"`) {
		t.Fatalf("expected component attribute, got %q", buf.String())
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if parseLevel("verbose") != parseLevel("info") {
		t.Fatal("unknown level should fall back to info")
	}
}
