package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/dstask/internal/model"
)

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"nas.local", "nas.local"},
		{"NAS.Local", "nas.local"},
		{"https://nas.local/", "nas.local"},
		{"http://nas.local:5000//", "nas.local:5000"},
		{"  nas.local  ", "nas.local"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHost(tt.input))
		})
	}
}

func TestParseHost(t *testing.T) {
	u, err := ParseHost("nas.local:5001")
	require.NoError(t, err)
	assert.Equal(t, "https://nas.local:5001", u.String())

	u, err = ParseHost("http://nas.local:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://nas.local:5000", u.String())

	for _, bad := range []string{"", "   ", "ftp://nas.local", "https://"} {
		_, err := ParseHost(bad)
		assert.ErrorIs(t, err, ErrInvalidHost, "input %q", bad)
	}
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "dstask", "session.json")),
		"memory": NewMemoryStore(),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			rec := model.SessionRecord{
				SessionToken:       "sid-1",
				Account:            "alice",
				DefaultDestination: "/volume1/downloads",
			}
			require.NoError(t, store.Save("https://NAS.local/", rec))

			got, err := store.Load("nas.local")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "nas.local", got.HostKey)
			assert.Equal(t, "sid-1", got.SessionToken)
			assert.Equal(t, "alice", got.Account)
			assert.Equal(t, "/volume1/downloads", got.DefaultDestination)
			assert.False(t, got.UpdatedAt.IsZero())
		})
	}
}

func TestStore_LoadMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Load("unknown.local")
			assert.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save("a.local", model.SessionRecord{Account: "a"}))
			require.NoError(t, store.Save("b.local", model.SessionRecord{Account: "b"}))

			require.NoError(t, store.Delete("A.local"))
			got, err := store.Load("a.local")
			require.NoError(t, err)
			assert.Nil(t, got)

			require.NoError(t, store.Delete("missing.local"))

			require.NoError(t, store.Clear())
			got, err = store.Load("b.local")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestFileStore_PermissionsAndNoSecrets(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dstask")
	store := NewFileStore(filepath.Join(dir, "session.json"))

	require.NoError(t, store.Save("nas.local", model.SessionRecord{SessionToken: "sid", Account: "alice"}))
	require.NoError(t, store.Save("other.local", model.SessionRecord{Account: "bob"}))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := strings.ToLower(string(data))
	for _, field := range []string{"secret", "password", "passwd", "otp"} {
		assert.NotContains(t, content, field)
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, NewFileStore(path).Save("nas.local", model.SessionRecord{SessionToken: "sid"}))

	got, err := NewFileStore(path).Load("NAS.LOCAL/")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sid", got.SessionToken)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := NewFileStore(path).Load("nas.local")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	assert.IsType(t, &MemoryStore{}, Open("/tmp/x.json", false))
	assert.IsType(t, &MemoryStore{}, Open("", true))
	assert.IsType(t, &FileStore{}, Open("/tmp/x.json", true))
}
