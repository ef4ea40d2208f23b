package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfinis/ocp-upgrade-path/pkg/types"
	"github.com/adfinis/ocp-upgrade-path/pkg/upgrade"
)

func pathResult() *upgrade.Result {
	return &upgrade.Result{
		Current:  "4.10.0",
		Target:   "4.11.0",
		Channels: []types.Channel{"stable-4.10", "stable-4.11"},
		Path: types.Path{
			{Version: "4.10.0", Channel: "stable-4.10"},
			{Version: "4.10.5", Channel: "stable-4.11"},
			{Version: "4.11.0"},
		},
		Found: true,
	}
}

func TestRenderText(t *testing.T) {
	tests := []struct {
		name string
		res  *upgrade.Result
		want string
	}{
		{
			name: "path",
			res:  pathResult(),
			want: "Shortest Upgrade path from 4.10.0 to 4.11.0:\n" +
				"  4.10.0 -> 4.10.5 using stable-4.10\n" +
				"  4.10.5 -> 4.11.0 using stable-4.11\n",
		},
		{
			name: "no action",
			res:  &upgrade.Result{Current: "4.10.0", Target: "4.10.0", Path: types.Path{}, Found: true},
			want: "No action required\n",
		},
		{
			name: "not found",
			res: &upgrade.Result{
				Current:  "4.9.0",
				Target:   "4.12.0",
				Channels: []types.Channel{"stable-4.9", "stable-4.10", "stable-4.11", "stable-4.12"},
			},
			want: "No upgrade path from 4.9.0 to 4.12.0 found, using channels stable-4.9, stable-4.10, stable-4.11, stable-4.12\n",
		},
		{
			name: "resolved target",
			res: func() *upgrade.Result {
				r := pathResult()
				r.ResolvedFrom = "4.11"
				return r
			}(),
			want: "Using 4.11.0 as target instead of 4.11\n" +
				"Shortest Upgrade path from 4.10.0 to 4.11.0:\n" +
				"  4.10.0 -> 4.10.5 using stable-4.10\n" +
				"  4.10.5 -> 4.11.0 using stable-4.11\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Render(&buf, tc.res, Options{Format: FormatText}))
			assert.Equal(t, tc.want, buf.String())
		})
	}
}

func TestRenderTextColor(t *testing.T) {
	var plain, colored bytes.Buffer
	require.NoError(t, Render(&plain, pathResult(), Options{}))
	require.NoError(t, Render(&colored, pathResult(), Options{Color: true}))

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "stable-4.10")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, pathResult(), Options{Format: FormatJSON}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "4.10.0", got["current"])
	assert.Equal(t, "4.11.0", got["target"])
	assert.Equal(t, true, got["found"])
	assert.Equal(t, false, got["upToDate"])
	assert.NotContains(t, got, "resolvedFrom")

	steps, ok := got["steps"].([]any)
	require.True(t, ok)
	require.Len(t, steps, 2)
	assert.Equal(t, map[string]any{"from": "4.10.5", "to": "4.11.0", "channel": "stable-4.11"}, steps[1])
}

func TestRenderJSONNotFound(t *testing.T) {
	var buf bytes.Buffer
	res := &upgrade.Result{Current: "4.9.0", Target: "4.12.0"}
	require.NoError(t, Render(&buf, res, Options{Format: FormatJSON}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, false, got["found"])
	assert.Nil(t, got["path"])
	assert.Equal(t, []any{}, got["steps"])
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, pathResult(), Options{Format: "yaml"})
	assert.ErrorContains(t, err, `unsupported output format "yaml"`)
}
