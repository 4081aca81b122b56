package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3" // register sqlite3 driver
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/search"
)

type ordered struct {
	Zeta  string   `json:"zeta"`
	Alpha int      `json:"alpha"`
	Flag  string   `json:"flag"`
	Lines string   `json:"lines"`
	List  []string `json:"list"`
}

var sample = ordered{Zeta: "z", Alpha: 1, Flag: "true", Lines: "a\nb\n", List: []string{"x", "y"}}

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Output(&buf, sample, ""))
	require.True(t, strings.HasPrefix(buf.String(), "{\n  \"zeta\": \"z\""))
}

func TestOutputYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Output(&buf, sample, "yaml"))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, "zeta: z\nalpha: 1\n"), out)
	require.NotContains(t, out, "{", "output should use block style")

	var back map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	require.Equal(t, "true", back["flag"])
	require.Equal(t, "a\nb\n", back["lines"])
	require.Equal(t, []interface{}{"x", "y"}, back["list"])
}

func TestOutputUnknownFormat(t *testing.T) {
	require.Error(t, Output(&bytes.Buffer{}, sample, "xml"))
}

func TestPopFirstArgument(t *testing.T) {
	first, rest, err := PopFirstArgument([]string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "a", first)
	require.Equal(t, []string{"b"}, rest)

	_, _, err = PopFirstArgument(nil)
	require.Error(t, err)
}

func TestReadStdinFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	b, err := ReadStdin(path)
	require.NoError(t, err)
	require.Equal(t, "hello", string(b))
}

func TestLoad(t *testing.T) {
	defer log.Reset()

	c := Config{ConfigFile: "testdata/config.json", Lint: true}
	require.NoError(t, Load(&c))
	require.Equal(t, "https://rekor.example.test", c.CFG.RekorURL)
	require.True(t, c.CFG.LintCertificates)

	c = Config{ConfigFile: "testdata/config.json", RekorURL: "http://localhost:3000"}
	require.NoError(t, Load(&c))
	require.Equal(t, "http://localhost:3000", c.CFG.RekorURL)

	c = Config{RekorURL: "not a url"}
	require.Error(t, Load(&c))

	c = Config{ConfigFile: "testdata/missing.json"}
	require.Error(t, Load(&c))
}

func TestRetrieverWithoutDB(t *testing.T) {
	c := Config{}
	require.NoError(t, Load(&c))
	r, closer, err := RetrieverFromConfig(c)
	require.NoError(t, err)
	defer closer()
	_, cached := r.Client.(*search.CachedClient)
	require.False(t, cached)
}

func TestRetrieverWithDB(t *testing.T) {
	dir := t.TempDir()
	dbConfig := filepath.Join(dir, "db-config.json")
	dbFile := filepath.Join(dir, "entries.db")
	require.NoError(t, os.WriteFile(dbConfig,
		[]byte(`{"driver":"sqlite3","data_source":"`+filepath.ToSlash(dbFile)+`"}`), 0o600))

	c := Config{DBConfigFile: dbConfig, MigrationsDir: "../entrydb/sqlite/migrations"}
	require.NoError(t, Load(&c))
	r, closer, err := RetrieverFromConfig(c)
	require.NoError(t, err)
	defer closer()

	cc, ok := r.Client.(*search.CachedClient)
	require.True(t, ok)
	records, err := cc.DB.GetEntry("nothing")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRetrieverBadDBConfig(t *testing.T) {
	c := Config{DBConfigFile: "testdata/missing.json"}
	require.NoError(t, Load(&c))
	_, _, err := RetrieverFromConfig(c)
	require.Error(t, err)
}
