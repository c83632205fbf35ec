package lang

import (
	"context"
	encbinary "encoding/binary"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// compiled stores a compiled template for each distinct (source, options)
// pair. Entries are never realized directly; callers receive clones.
//
//nolint:gochecknoglobals
var compiled sync.Map // map[string]*cacheEntry

type cacheEntry struct {
	once sync.Once
	tmpl *Template
	err  error
	src  string
}

// hashOptions hashes the options that affect compilation with xxh3.
func hashOptions(o options) uint64 {
	buf := make([]byte, 0, 3*encbinary.MaxVarintLen64)
	buf = encbinary.AppendVarint(buf, int64(o.maxDepth))
	buf = encbinary.AppendVarint(buf, int64(o.loopLimit))
	buf = encbinary.AppendVarint(buf, int64(o.policy))

	return xxh3.Hash(buf)
}

// cacheKey combines the hashes of the source and options.
func cacheKey(src string, o options) string {
	return strconv.FormatUint(xxh3.Hash([]byte(src))^hashOptions(o), 36)
}

// PrepareCached is like [Prepare] but compiles each distinct source and
// option set only once per process. Every call returns a fresh
// [Template.Clone], so the result may be realized without coordinating with
// other callers. A key collision between different sources compiles the
// colliding source without caching it.
func PrepareCached(ctx context.Context, src string, opts ...Option) (*Template, error) {
	o := makeOptions(opts...)
	key := cacheKey(src, o)

	value, hit := compiled.LoadOrStore(key, &cacheEntry{src: src})

	entry, ok := value.(*cacheEntry)
	if !ok || entry.src != src {
		o.logger.DebugContext(ctx, "cache key collision", slog.String("key", key))

		return Prepare(ctx, src, opts...)
	}

	o.logger.TraceContext(ctx, "cache lookup",
		slog.String("key", key),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		entry.tmpl, entry.err = Prepare(ctx, src, opts...)
	})

	if entry.err != nil {
		compiled.CompareAndDelete(key, entry)

		return nil, entry.err
	}

	t := entry.tmpl.Clone()
	t.opts = o

	return t, nil
}

// ClearCache discards every template compiled by [PrepareCached].
func ClearCache() {
	compiled.Clear()
}

// PrepareReader reads all of r and compiles it with [PrepareCached].
func PrepareReader(ctx context.Context, r io.Reader, opts ...Option) (*Template, error) {
	// Read ahead asynchronously so I/O overlaps with buffering.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	makeOptions(opts...).logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return PrepareCached(ctx, string(data), opts...)
}
