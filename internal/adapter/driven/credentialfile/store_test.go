package credentialfile_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/requisitionbot/internal/adapter/driven/credentialfile"
	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

func newStore(t *testing.T) (*credentialfile.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".token_cache.json")
	return credentialfile.NewStore(path, slog.New(slog.NewTextHandler(io.Discard, nil))), path
}

func TestStore_LoadMissingFile(t *testing.T) {
	store, _ := newStore(t)

	cred, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestStore_SaveThenLoad(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	want := model.Credential{AccessToken: "at-1", RefreshToken: "rt-1", ExpiresAtMs: 1718000000000}

	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestStore_FileFormat(t *testing.T) {
	store, path := newStore(t)

	require.NoError(t, store.Save(context.Background(), model.Credential{
		AccessToken: "at", RefreshToken: "rt", ExpiresAtMs: 42,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accessToken":"at","refreshToken":"rt","expireTime":42}`, string(data))
}

func TestStore_LoadIgnoresUnknownKeys(t *testing.T) {
	store, path := newStore(t)
	raw := `{"accessToken":"at","refreshToken":"rt","expireTime":99,"corporationId":"corp"}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	got, err := store.Load(context.Background())

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(99), got.ExpiresAtMs)
}

func TestStore_LoadCorruptFileIsTreatedAsMissing(t *testing.T) {
	store, path := newStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	got, err := store.Load(context.Background())

	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.Credential{AccessToken: "old", RefreshToken: "r1", ExpiresAtMs: 1}))
	require.NoError(t, store.Save(ctx, model.Credential{AccessToken: "new", RefreshToken: "r2", ExpiresAtMs: 2}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", got.AccessToken)
	assert.Equal(t, "r2", got.RefreshToken)
}
