package lang

// Host and filesystem functions. Lookups that fail resolve to the empty
// string or false rather than an error, so templates can probe the host.

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"

	"github.com/ardnew/mung"
)

func systemFuncs() []*Function {
	return []*Function{
		fn("hostname", 0, 0, func(Call) (Variable, error) {
			h, err := os.Hostname()
			if err != nil {
				return String(""), nil //nolint:nilerr
			}

			return String(h), nil
		}),
		fn("user", 0, 0, func(Call) (Variable, error) {
			u, err := user.Current()
			if err != nil {
				return String(""), nil //nolint:nilerr
			}

			return String(u.Username), nil
		}),
		fn("cwd", 0, 0, func(Call) (Variable, error) {
			return String(cwd()), nil
		}),
		fn("platform", 0, 0, func(Call) (Variable, error) {
			goos, arch := platform()

			return String(goos + "/" + arch), nil
		}),
		fn("target", 0, 0, func(Call) (Variable, error) {
			goos, arch := target()

			return String(arch + "-" + goos), nil
		}),
		fn("getenv", 1, 2, func(c Call) (Variable, error) {
			if v, ok := os.LookupEnv(c.Args[0]); ok {
				return String(v), nil
			}

			return String(c.Arg(1, "")), nil
		}),
		fn("exists", 1, 1, func(c Call) (Variable, error) {
			_, err := os.Stat(c.Args[0])

			return Bool(!os.IsNotExist(err)), nil
		}),
		fn("isdir", 1, 1, func(c Call) (Variable, error) {
			info, err := os.Stat(c.Args[0])

			return Bool(err == nil && info.IsDir()), nil
		}),
		fn("abspath", 1, 1, func(c Call) (Variable, error) {
			return String(abs(c.Args[0])), nil
		}),
		fn("joinpath", 1, Variadic, func(c Call) (Variable, error) {
			return String(filepath.Join(c.Args...)), nil
		}),
		fn("prefix", 2, Variadic, func(c Call) (Variable, error) {
			return String(prefixList(c.Args[0], c.Args[1:]...)), nil
		}),
	}
}

// platform returns the host OS and architecture using Go conventions.
func platform() (string, string) {
	var (
		o, a string
		ok   bool
	)

	if o, ok = os.LookupEnv("GOHOSTOS"); !ok {
		if o, ok = os.LookupEnv("GOOS"); !ok {
			o = runtime.GOOS
		}
	}

	if a, ok = os.LookupEnv("GOHOSTARCH"); !ok {
		if a, ok = os.LookupEnv("GOARCH"); !ok {
			a = runtime.GOARCH
		}
	}

	return o, a
}

// target returns the host OS and architecture using GNU naming conventions.
func target() (string, string) {
	o, a := platform()

	switch a {
	case "386":
		a = "i386"
	case "amd64":
		a = "x86_64"
	case "arm64":
		if o != "darwin" {
			a = "aarch64"
		}
	case "mipsle":
		a = "mipsel"
	}

	return o, a
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return abs(".")
	}

	return dir
}

func abs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

// prefixList prepends items to the PATH-like list key, removing any
// duplicates of the prepended items already present.
func prefixList(key string, items ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(items...),
	).String()
}
