package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
)

func TestAxiomEvent(t *testing.T) {
	tests := []struct {
		line string
		ship bool
	}{
		{`{"level":"info","message":"hello"}`, true},
		{`{"level":"warn","message":"skipped part"}`, true},
		{`{"level":"debug","message":"noise"}`, false},
		{`not json`, true},
	}
	for _, tt := range tests {
		ev, ok := axiomEvent([]byte(tt.line))
		if ok != tt.ship {
			t.Errorf("%s: shipped=%v, want %v", tt.line, ok, tt.ship)
			continue
		}
		if ok && ev["service"] != serviceName {
			t.Errorf("%s: service=%v", tt.line, ev["service"])
		}
	}
}

func TestInit_WritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "pagesel.log")
	if err := Init(Options{Level: "warn", File: file, MaxSizeMB: 1}); err != nil {
		t.Fatal(err)
	}
	defer Close()

	log.Info().Msg("filtered")
	log.Warn().Str("part", "7").Msg("kept")

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "filtered") {
		t.Errorf("info line written at warn level: %s", out)
	}
	if !strings.Contains(out, `"service":"pagesel"`) || !strings.Contains(out, `"part":"7"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}
