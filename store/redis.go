package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
)

// DefaultTimeout bounds every Redis round trip made while resolving a name.
const DefaultTimeout = 2 * time.Second

// Options configures a [Redis] retriever.
type Options struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every name to form the Redis key.
	Prefix string
	// Timeout bounds each lookup. Zero selects DefaultTimeout.
	Timeout time.Duration
	Logger  log.Logger
}

// Redis resolves object names to Redis keys.
//
// Redis is safe for concurrent use.
type Redis struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	logger  log.Logger
}

// New connects lazily to the server described by opts.
func New(opts Options) *Redis {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		MaxRetries:   -1,
	})

	return Wrap(client, opts)
}

// Wrap uses an existing client. Only the Prefix, Timeout and Logger fields
// of opts are used.
func Wrap(client *redis.Client, opts Options) *Redis {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Redis{
		client:  client,
		prefix:  opts.Prefix,
		timeout: timeout,
		logger:  opts.Logger,
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Key returns the Redis key for name.
func (r *Redis) Key(name string) string {
	return r.prefix + name
}

// RetrieveNamed implements [lang.Retriever]. It reports false when the key
// does not exist or the server cannot be reached.
func (r *Redis) RetrieveNamed(ctx context.Context, name string) (lang.Handle, bool) {
	key := r.Key(name)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	kind, err := r.client.Type(ctx, key).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "redis lookup failed",
			slog.String("key", key),
			slog.Any("error", err),
		)

		return nil, false
	}

	if kind == "none" {
		return nil, false
	}

	r.logger.TraceContext(ctx, "redis object",
		slog.String("key", key),
		slog.String("type", kind),
	)

	return &object{Redis: r, key: key, kind: kind}, true
}

// object is a single Redis key.
type object struct {
	*Redis

	key  string
	kind string
}

// Modifier implements [lang.Handle]. Each call reads the current value.
func (o *object) Modifier(ctx context.Context, subpath, params []string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	v, err := o.value(ctx, subpath)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			o.logger.DebugContext(ctx, "redis read failed",
				slog.String("key", o.key),
				slog.Any("error", err),
			)
		}

		return "", false
	}

	s, err := v.ValueString(subpath, params)

	return s, err == nil
}

// value reads the key as a [lang.Variable]. Hash reads with a non-empty
// subpath fetch only the selected field.
func (o *object) value(ctx context.Context, subpath []string) (lang.Variable, error) {
	switch o.kind {
	case "hash":
		if len(subpath) > 0 {
			s, err := o.client.HGet(ctx, o.key, subpath[0]).Result()
			if err != nil {
				return nil, err
			}

			return lang.Map{subpath[0]: lang.ValueOf(s)}, nil
		}

		fields, err := o.client.HGetAll(ctx, o.key).Result()
		if err != nil {
			return nil, err
		}

		m := make(lang.Map, len(fields))
		for k, s := range fields {
			m[k] = lang.ValueOf(s)
		}

		return m, nil

	case "list":
		items, err := o.client.LRange(ctx, o.key, 0, -1).Result()
		if err != nil {
			return nil, err
		}

		return lang.Array(items), nil

	case "set":
		items, err := o.client.SMembers(ctx, o.key).Result()
		if err != nil {
			return nil, err
		}

		slices.Sort(items)

		return lang.Array(items), nil

	case "string":
		s, err := o.client.Get(ctx, o.key).Result()
		if err != nil {
			return nil, err
		}

		return lang.ValueOf(s), nil
	}

	return nil, redis.Nil
}
