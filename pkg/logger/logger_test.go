package logger

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestInitLevelMapping(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"WARN", "warn"},
		{"warning", "warn"},
		{"Error", "error"},
		{"fatal", "fatal"},
		{"", "info"},
		{"nonsense", "info"},
	}
	for _, tc := range cases {
		Init(tc.in)
		if got := LevelString(); got != tc.want {
			t.Fatalf("Init(%q): LevelString() = %q, want %q", tc.in, got, tc.want)
		}
	}
	Init("info")
}

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := logger
	logger = log.New(&buf, "", 0)
	t.Cleanup(func() { logger = orig })
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	Init("warn")
	defer Init("info")

	Debugf("debug-msg")
	Infof("info-msg")
	Warnf("warn-msg")
	Errorf("error-msg")

	out := buf.String()
	for _, suppressed := range []string{"debug-msg", "info-msg"} {
		if strings.Contains(out, suppressed) {
			t.Fatalf("%s should be suppressed at warn level, output: %q", suppressed, out)
		}
	}
	for _, expected := range []string{"warn-msg", "error-msg"} {
		if !strings.Contains(out, expected) {
			t.Fatalf("missing %s in output: %q", expected, out)
		}
	}
	if !strings.Contains(out, "[WARN]") {
		t.Fatalf("expected level header in output: %q", out)
	}
}

func TestPrintlnMapsToInfo(t *testing.T) {
	buf := capture(t)

	Init("warn")
	Println("hello")
	if strings.Contains(buf.String(), "hello") {
		t.Fatalf("Println should be suppressed at warn level")
	}

	Init("info")
	buf.Reset()
	Println("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("Println expected at info level, got: %q", buf.String())
	}
}
