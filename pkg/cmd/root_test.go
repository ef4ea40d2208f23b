package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfinis/ocp-upgrade-path/pkg/cincinnati"
)

var testGraphs = map[string]string{
	"stable-4.10": `{"nodes":[{"version":"4.10.0"},{"version":"4.10.5"}],"edges":[[0,1]]}`,
	"stable-4.11": `{"nodes":[{"version":"4.10.5"},{"version":"4.11.0"},{"version":"4.11.2"}],"edges":[[0,1],[1,2]]}`,
	"fast-4.10":   `{"nodes":[{"version":"4.10.0"},{"version":"4.10.6"}],"edges":[[0,1]]}`,
	"fast-4.11":   `{"nodes":[{"version":"4.10.6"},{"version":"4.11.3"}],"edges":[[0,1]]}`,
}

func newUpdateService(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := testGraphs[r.URL.Query().Get("channel")]
		if !ok || r.URL.Query().Get("arch") != "amd64" {
			http.Error(w, "unknown channel", http.StatusBadRequest)
			return
		}
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := New("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootPath(t *testing.T) {
	srv := newUpdateService(t)

	out, err := execute(t, "--graph-url", srv.URL, "--color", "never", "4.10.0", "4.11.0")
	require.NoError(t, err)
	assert.Equal(t, "Shortest Upgrade path from 4.10.0 to 4.11.0:\n"+
		"  4.10.0 -> 4.10.5 using stable-4.10\n"+
		"  4.10.5 -> 4.11.0 using stable-4.11\n", out)
}

func TestRootBareTargetWithFast(t *testing.T) {
	srv := newUpdateService(t)

	out, err := execute(t, "--graph-url", srv.URL, "--color", "never", "--fast", "--parallel", "2", "4.10.0", "4.11")
	require.NoError(t, err)
	assert.Equal(t, "Using 4.11.3 as target instead of 4.11\n"+
		"Shortest Upgrade path from 4.10.0 to 4.11.3:\n"+
		"  4.10.0 -> 4.10.6 using fast-4.10\n"+
		"  4.10.6 -> 4.11.3 using fast-4.11\n", out)
}

func TestRootNoActionRequired(t *testing.T) {
	srv := newUpdateService(t)

	out, err := execute(t, "--graph-url", srv.URL, "--color", "never", "4.10.5", "4.10.5")
	require.NoError(t, err)
	assert.Equal(t, "No action required\n", out)
}

func TestRootNotFound(t *testing.T) {
	srv := newUpdateService(t)

	out, err := execute(t, "--graph-url", srv.URL, "--color", "never", "4.10.3", "4.11.0")
	require.NoError(t, err)
	assert.Equal(t, "No upgrade path from 4.10.3 to 4.11.0 found, using channels stable-4.10, stable-4.11\n", out)
}

func TestRootDowngradeNotFound(t *testing.T) {
	srv := newUpdateService(t)

	for _, args := range [][]string{{"4.10.5", "4.10.0"}, {"4.11.2", "4.10.5"}} {
		out, err := execute(t, append([]string{"--graph-url", srv.URL, "--color", "never"}, args...)...)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, fmt.Sprintf("No upgrade path from %s to %s found", args[0], args[1])), out)
	}
}

func TestRootJSON(t *testing.T) {
	srv := newUpdateService(t)

	out, err := execute(t, "--graph-url", srv.URL, "-o", "json", "4.10.0", "4.11.0")
	require.NoError(t, err)

	var got struct {
		Found bool `json:"found"`
		Steps []struct {
			Channel string `json:"channel"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Found)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, "stable-4.10", got.Steps[0].Channel)
}

func TestRootFetchFailure(t *testing.T) {
	srv := newUpdateService(t)

	_, err := execute(t, "--graph-url", srv.URL, "--arch", "ppc64le", "4.10.0", "4.11.0")
	require.ErrorIs(t, err, cincinnati.ErrFetch)
}

func TestRootEnvironment(t *testing.T) {
	srv := newUpdateService(t)
	t.Setenv("OCP_UPGRADE_PATH_GRAPH_URL", srv.URL)
	t.Setenv("OCP_UPGRADE_PATH_COLOR", "never")

	out, err := execute(t, "4.10.0", "4.10.5")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Shortest Upgrade path from 4.10.0 to 4.10.5:"))
}

func TestRootInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing target", args: []string{"4.10.0"}},
		{name: "too many args", args: []string{"4.10.0", "4.11.0", "4.12.0"}},
		{name: "bad output", args: []string{"-o", "yaml", "4.10.0", "4.11.0"}},
		{name: "bad version", args: []string{"--graph-url", "http://127.0.0.1:1", "latest", "4.11.0"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			require.Error(t, err)
		})
	}
}
