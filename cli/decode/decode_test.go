package decode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sigstore/rekor-search-ui/cli"
)

func writeEntries(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entries.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func intotoBody() string {
	return base64.StdEncoding.EncodeToString([]byte(
		`{"kind":"intoto","apiVersion":"0.0.1","spec":{"content":{"hash":{"algorithm":"sha256","value":"ff00"}}}}`))
}

func TestDecode(t *testing.T) {
	path := writeEntries(t, `{"bbbb":{"body":"`+intotoBody()+`","logIndex":3},"aaaa":{"body":"@@"}}`)

	var buf bytes.Buffer
	if err := run(&buf, nil, cli.Config{EntryFile: path, Format: "json"}); err != nil {
		t.Fatal(err)
	}

	var res Result
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || res.Entries[0].UUID != "bbbb" {
		t.Fatalf("unexpected entries %+v", res.Entries)
	}
	if res.Entries[0].Viewer == nil || res.Entries[0].Viewer.Hash.String() != "sha256:ff00" {
		t.Fatalf("unexpected viewer %+v", res.Entries[0].Viewer)
	}
	if len(res.Errors) != 1 || res.Errors[0].UUID != "aaaa" {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
}

func TestDecodeYAML(t *testing.T) {
	path := writeEntries(t, `{"bbbb":{"body":"`+intotoBody()+`"}}`)

	var buf bytes.Buffer
	if err := run(&buf, nil, cli.Config{EntryFile: path, Format: "yaml"}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "entries:\n") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if !strings.Contains(buf.String(), "kind: intoto/v0.0.1") {
		t.Fatalf("viewer kind missing from %q", buf.String())
	}
}

func TestDecodeErrors(t *testing.T) {
	if err := run(&bytes.Buffer{}, nil, cli.Config{}); err == nil {
		t.Fatal("expected an error without -entry")
	}
	if err := run(&bytes.Buffer{}, nil, cli.Config{EntryFile: writeEntries(t, `[`)}); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	if err := run(&bytes.Buffer{}, nil, cli.Config{EntryFile: writeEntries(t, `{"aaaa":{"body":"@@"}}`)}); err == nil {
		t.Fatal("expected an error when no entry decodes")
	}
}
