package localstore

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a Store backend
type Options struct {
	Backend     string
	Dir         string
	RedisAddr   string
	RedisPrefix string
}

// Open builds the configured Store. The returned close func releases
// whatever the backend holds.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch opts.Backend {
	case BackendFile, "":
		fs, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, errors.Wrapf(err, "connect to redis at %s", opts.RedisAddr)
		}
		return NewRedisStore(client, opts.RedisPrefix), client.Close, nil

	case BackendMemory:
		return NewMemoryStore(), noop, nil
	}

	return nil, nil, errors.Errorf("unknown state backend %q", opts.Backend)
}
