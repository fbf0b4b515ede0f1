package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"redis":  NewRedisStore(client, "test:"),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, KeyCart, []byte(`[]`)))
			got, err := s.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[]`, string(got))

			require.NoError(t, s.Set(ctx, KeyCart, []byte(`[{"id":1,"quantity":2}]`)))
			got, err = s.Get(ctx, KeyCart)
			require.NoError(t, err)
			assert.Equal(t, `[{"id":1,"quantity":2}]`, string(got))

			require.NoError(t, s.Delete(ctx, KeyCart))
			_, err = s.Get(ctx, KeyCart)
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting an absent slot is fine
			require.NoError(t, s.Delete(ctx, KeyCart))
		})
	}
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, Save(ctx, s, KeyTheme, true))

	var dark bool
	require.NoError(t, Load(ctx, s, KeyTheme, &dark))
	assert.True(t, dark)

	var missing []int
	err := Load(ctx, s, KeyFavorites, &missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, KeyCart, []byte(`{not json`)))

	var cart []map[string]any
	err := Load(ctx, s, KeyCart, &cart)
	assert.True(t, errors.Is(err, ErrCorrupt))
	assert.Contains(t, err.Error(), KeyCart)
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, fs.Set(context.Background(), KeyTheme, []byte("false")))
	data, err := os.ReadFile(filepath.Join(dir, KeyTheme+".json"))
	require.NoError(t, err)
	assert.Equal(t, "false", string(data))

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.Error(t, fs.Set(context.Background(), "../escape", []byte("x")))
}

func TestRedisPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s := NewRedisStore(client, "shop-a:")
	require.NoError(t, s.Set(context.Background(), KeyTheme, []byte("true")))

	v, err := mr.Get("shop-a:" + KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		opts    Options
		want    interface{}
		wantErr bool
	}{
		{"default is file", Options{Dir: t.TempDir()}, &FileStore{}, false},
		{"memory", Options{Backend: BackendMemory}, &MemoryStore{}, false},
		{"redis", Options{Backend: BackendRedis, RedisAddr: mr.Addr(), RedisPrefix: "glow:"}, &RedisStore{}, false},
		{"redis unreachable", Options{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"}, nil, true},
		{"unknown", Options{Backend: "sqlite"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, closeFn, err := Open(ctx, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer closeFn()
			assert.IsType(t, tt.want, s)

			require.NoError(t, s.Set(ctx, KeyTheme, []byte("true")))
			v, err := s.Get(ctx, KeyTheme)
			require.NoError(t, err)
			assert.Equal(t, "true", string(v))
		})
	}
}
