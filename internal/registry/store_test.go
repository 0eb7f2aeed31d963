package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/devdock/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".devdock"))
}

func TestStore_CreateAndRead(t *testing.T) {
	s := newTestStore(t)

	rec := &model.Environment{
		Name:    "api",
		Kind:    model.KindContainer,
		Image:   "golang:1.25",
		Volumes: []string{"/home/me/api:/src", "gocache:/root/.cache"},
		Ports:   []string{"8080:8080"},
	}
	require.NoError(t, s.Create(rec))

	got, err := s.Read("api")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.FileExists(t, filepath.Join(s.Dir(), "api.yaml"))
}

func TestStore_RecordFormat(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create(&model.Environment{
		Name:        "shop",
		Kind:        model.KindCompose,
		ComposeFile: "/work/shop/docker-compose.dev.yml",
	}))

	data, err := os.ReadFile(s.Path("shop"))
	require.NoError(t, err)
	assert.Equal(t, "name: shop\ntype: compose\ncompose_file: /work/shop/docker-compose.dev.yml\n", string(data))
}

func TestStore_CreateRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	err := s.Create(&model.Environment{Name: "api", Kind: model.KindContainer})
	require.Error(t, err)

	err = s.Create(&model.Environment{Name: "../escape", Kind: model.KindContainer, Image: "busybox"})
	require.Error(t, err)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStore_CreateOverwrites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Create(&model.Environment{Name: "api", Kind: model.KindContainer, Image: "busybox"}))
	require.NoError(t, s.Create(&model.Environment{Name: "api", Kind: model.KindContainer, Image: "alpine"}))

	got, err := s.Read("api")
	require.NoError(t, err)
	assert.Equal(t, "alpine", got.Image)
}

func TestStore_ReadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read("ghost")

	var nf *model.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "config", nf.Kind)
	assert.Equal(t, "no configuration found for ghost", err.Error())
}

func TestStore_ReadMalformed(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.Dir(), 0o755))
	require.NoError(t, os.WriteFile(s.Path("broken"), []byte("name: [oops\n"), 0o644))

	_, err := s.Read("broken")

	var perr *model.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, s.Path("broken"), perr.Path)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(&model.Environment{Name: "api", Kind: model.KindContainer, Image: "busybox"}))

	require.NoError(t, s.Delete("api"))
	assert.False(t, s.Exists("api"))

	err := s.Delete("api")
	assert.True(t, model.IsNotFound(err))
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)

	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names, "missing directory holds no records")

	for _, n := range []string{"web", "api", "db"} {
		require.NoError(t, s.Create(&model.Environment{Name: n, Kind: model.KindContainer, Image: "busybox"}))
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "sub.yaml"), 0o755))

	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "db", "web"}, names)
}

func TestStore_Exists(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(&model.Environment{Name: "api", Kind: model.KindContainer, Image: "busybox"}))

	assert.True(t, s.Exists("api"))
	assert.False(t, s.Exists("web"))
	assert.False(t, s.Exists(""))
}
