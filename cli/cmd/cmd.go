package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pattern/pkg"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type stdioKey struct{}

type stdio struct {
	in  io.Reader
	out io.Writer
}

// WithStdio returns a context whose commands read standard input from in
// and write results to out. Nil values select os.Stdin and os.Stdout.
func WithStdio(ctx context.Context, in io.Reader, out io.Writer) context.Context {
	return context.WithValue(ctx, stdioKey{}, stdio{in: in, out: out})
}

func stdioFrom(ctx context.Context) (in io.Reader, out io.Writer) {
	s, _ := ctx.Value(stdioKey{}).(stdio)

	in, out = s.in, s.out
	if in == nil {
		in = os.Stdin
	}

	if out == nil {
		out = os.Stdout
	}

	return in, out
}

// stdinSource is the path naming standard input.
const stdinSource = "-"

// source is one template input.
type source struct {
	name string
	io.Reader
}

// fileKey identifies a file by device and inode, so that one file named by
// different paths (relative, absolute, symlinked) is opened once.
type fileKey struct {
	dev  uint64
	ino  uint64
	path string
}

// openSources opens each named template file once, in the order given.
// Every "-" refers to the same standard input source, which is placed last.
// An empty list reads standard input alone.
//
// The returned function closes every opened file.
func openSources(
	ctx context.Context,
	paths []string,
) (srcs []source, closeAll func(), err error) {
	stdin, _ := stdioFrom(ctx)

	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	var (
		files    []*os.File
		hasStdin bool
		seen     = make(map[fileKey]struct{})
	)

	closeAll = func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	stdinKey, stdinOK := keyOfReader(stdin)

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		f, key, err := openFile(path)
		if err != nil {
			closeAll()

			return nil, nil, pkg.ErrReadInput.Wrap(err)
		}

		if stdinOK && key == stdinKey {
			_ = f.Close()
			hasStdin = true

			continue
		}

		if _, dup := seen[key]; dup {
			_ = f.Close()

			continue
		}

		seen[key] = struct{}{}
		files = append(files, f)
		srcs = append(srcs, source{name: path, Reader: f})
	}

	if hasStdin {
		srcs = append(srcs, source{name: stdinSource, Reader: stdin})
	}

	return srcs, closeAll, nil
}

// openFile resolves path through symlinks and opens the target.
func openFile(path string) (*os.File, fileKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fileKey{}, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, fileKey{}, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fileKey{}, err
	}

	key, ok := makeFileKey(info)
	if !ok {
		key = fileKey{path: resolved}
	}

	return f, key, nil
}

func keyOfReader(r io.Reader) (fileKey, bool) {
	f, ok := r.(*os.File)
	if !ok || f == nil {
		return fileKey{}, false
	}

	info, err := f.Stat()
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
