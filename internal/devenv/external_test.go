package devenv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devdock/internal/model"
)

func TestParseExternal(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		isJSON bool
		want   []string
	}{
		{
			name: "yaml single",
			data: "name: api\ntype: container\nimage: golang:1.25\n",
			want: []string{"api"},
		},
		{
			name: "yaml list",
			data: `environments:
  - name: api
    type: container
    image: golang:1.25
    ports: ["8080:8080"]
  - name: shop
    type: compose
    compose_file: /work/shop/docker-compose.yml
    services: [web]
`,
			want: []string{"api", "shop"},
		},
		{
			name: "jsonc with comments",
			data: `{
	// local stacks
	"environments": [
		{"name": "api", "type": "container", "image": "golang:1.25"},
		{"name": "shop", "type": "compose", "compose_file": "/w/c.yml",}, // trailing comma
	]
}`,
			isJSON: true,
			want:   []string{"api", "shop"},
		},
		{
			name:   "json single",
			data:   `{"name": "api", "type": "container", "image": "busybox"}`,
			isJSON: true,
			want:   []string{"api"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs, err := ParseExternal([]byte(tt.data), tt.isJSON)
			require.NoError(t, err)

			names := make([]string, 0, len(envs))
			for _, e := range envs {
				names = append(names, e.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestParseExternal_Fields(t *testing.T) {
	envs, err := ParseExternal([]byte(`environments:
  - name: shop
    type: compose
    compose_file: /work/shop/docker-compose.yml
    services: [web, worker]
`), false)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, model.Environment{
		Name:        "shop",
		Kind:        model.KindCompose,
		ComposeFile: "/work/shop/docker-compose.yml",
		Services:    []string{"web", "worker"},
	}, envs[0])
}

func TestParseExternal_Errors(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		isJSON    bool
		wantParse bool
	}{
		{name: "empty", data: "  \n", wantParse: true},
		{name: "bad yaml", data: "name: [unclosed", wantParse: true},
		{name: "bad json", data: `{"name": `, isJSON: true, wantParse: true},
		{name: "empty list", data: "environments: []\n", wantParse: true},
		{name: "invalid record", data: "name: api\ntype: container\n"},
		{name: "bad type", data: "name: api\ntype: vm\nimage: x\n"},
		{
			name: "duplicate",
			data: `environments:
  - {name: api, type: container, image: a}
  - {name: api, type: container, image: b}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExternal([]byte(tt.data), tt.isJSON)
			require.Error(t, err)

			var perr *model.ParseError
			if tt.wantParse {
				assert.True(t, errors.As(err, &perr))
			} else {
				assert.False(t, errors.As(err, &perr))
				assert.Equal(t, model.ExitInvalidInput, model.ExitCodeFor(err))
			}
		})
	}
}

func TestLoadExternal(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "envs.jsonc")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name": "api", "type": "container", "image": "busybox"} // one`), 0o644))
	envs, err := LoadExternal(jsonPath)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "busybox", envs[0].Image)

	badPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badPath, []byte("name: [unclosed"), 0o644))
	_, err = LoadExternal(badPath)
	var perr *model.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, badPath, perr.Path)

	_, err = LoadExternal(filepath.Join(dir, "missing.yaml"))
	assert.True(t, model.IsNotFound(err))
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	envs := []model.Environment{
		{Name: "api", Kind: model.KindContainer, Image: "busybox"},
		{Name: "shop", Kind: model.KindCompose, ComposeFile: "/w/c.yml"},
	}

	names, err := h.mgr.Register(envs)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "shop"}, names)

	listed, err := h.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "shop"}, listed)
}

func TestIsJSONFile(t *testing.T) {
	assert.True(t, isJSONFile("a/envs.json"))
	assert.True(t, isJSONFile("envs.JSONC"))
	assert.False(t, isJSONFile("envs.yaml"))
	assert.False(t, isJSONFile("envs"))
}
