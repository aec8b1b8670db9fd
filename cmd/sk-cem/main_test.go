package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "cemkit.yaml")
	require.NoError(t, os.WriteFile(name, []byte("log:\n  level: warn\n"), 0644))
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", name}, args...))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"run", "fetch", "normalize", "version"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRunCommand_Flags(t *testing.T) {
	flag := runCmd.Flags().Lookup("sample-size")
	require.NotNil(t, flag)
	assert.Equal(t, "10", flag.DefValue)
	flag = runCmd.Flags().Lookup("seed")
	require.NotNil(t, flag)
	assert.Equal(t, "42", flag.DefValue)
}

func TestNormalizeCommand(t *testing.T) {
	out := execute(t, "The Journal of Foo & Bar (2nd Ed)\nNature: NAT\n", "normalize")
	assert.Equal(t, "journal of foo and bar\nnature\n", out)
}

func TestFetchCommand(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Rank;Title;SJR\n1;%s;1,0\n", r.URL.Path)
	}))
	defer ts.Close()
	dir := t.TempDir()
	execute(t, "", "fetch", "-y", "2001", "-Y", "2002", "--data-dir", dir, "-u", ts.URL+"/%d")
	for _, year := range []int{2001, 2002} {
		b, err := os.ReadFile(filepath.Join(dir, "ranks", fmt.Sprintf("scimagojr %d.csv", year)))
		require.NoError(t, err)
		assert.Contains(t, string(b), fmt.Sprintf("/%d", year))
	}
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "cemkit 0.1.0\n", execute(t, "", "version"))
}
