package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestOutputf(t *testing.T) {
	const string1 = "asdf123"
	buf := new(bytes.Buffer)
	SetOutput(buf)
	defer Reset()

	Level = LevelDebug
	outputf(LevelDebug, string1, nil)
	line := buf.String()

	if !strings.Contains(line, string1) {
		t.Fatalf("output %q does not contain %q", line, string1)
	}
}

func TestLevelFilter(t *testing.T) {
	buf := new(bytes.Buffer)
	SetOutput(buf)
	defer Reset()

	Level = LevelWarning
	Infof("dropped %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("info message logged at warning level: %q", buf.String())
	}
	Warningf("kept %d", 2)
	if !strings.Contains(buf.String(), "kept 2") {
		t.Fatalf("warning not logged: %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	SetOutput(buf)
	defer Reset()

	if err := SetFormat("json"); err != nil {
		t.Fatal(err)
	}
	Level = LevelDebug
	Critical("disk on fire")

	var fields map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if fields["msg"] != "disk on fire" || fields["severity"] != "critical" {
		t.Fatalf("unexpected fields %v", fields)
	}

	if err := SetFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]int{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warn":    LevelWarning,
		"warning": LevelWarning,
		"fatal":   LevelFatal,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
