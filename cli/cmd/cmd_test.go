package cmd

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/pattern/config"
	"github.com/ardnew/pattern/pkg"
)

// writeFile creates name under dir with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// testConfig returns the default configuration.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.LoadFrom(map[string]string{})
	if err != nil {
		t.Fatal(err)
	}

	return cfg
}

func readAll(t *testing.T, srcs []source) []string {
	t.Helper()

	out := make([]string, len(srcs))

	for i, s := range srcs {
		data, err := io.ReadAll(s)
		if err != nil {
			t.Fatal(err)
		}

		out[i] = string(data)
	}

	return out
}

func TestOpenSourcesStdin(t *testing.T) {
	ctx := WithStdio(t.Context(), strings.NewReader("from stdin"), nil)

	srcs, closeAll, err := openSources(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer closeAll()

	if len(srcs) != 1 || srcs[0].name != stdinSource {
		t.Fatalf("sources = %+v, want stdin only", srcs)
	}

	if got := readAll(t, srcs); got[0] != "from stdin" {
		t.Errorf("stdin = %q", got[0])
	}
}

func TestOpenSourcesOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.tmpl", "A")
	b := writeFile(t, dir, "b.tmpl", "B")

	link := filepath.Join(dir, "link.tmpl")
	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlink: %v", err)
	}

	ctx := WithStdio(t.Context(), strings.NewReader("S"), nil)

	srcs, closeAll, err := openSources(ctx, []string{"-", a, b, link, a, "-"})
	if err != nil {
		t.Fatal(err)
	}
	defer closeAll()

	got := readAll(t, srcs)
	if want := []string{"A", "B", "S"}; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("contents = %v, want %v", got, want)
	}

	if srcs[0].name != a || srcs[2].name != stdinSource {
		t.Errorf("names = %q, %q", srcs[0].name, srcs[2].name)
	}
}

func TestOpenSourcesStdinFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "in.tmpl", "same")

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ctx := WithStdio(t.Context(), f, nil)

	srcs, closeAll, err := openSources(ctx, []string{path})
	if err != nil {
		t.Fatal(err)
	}
	defer closeAll()

	if len(srcs) != 1 || srcs[0].name != stdinSource {
		t.Errorf("sources = %+v, want the file read once as stdin", srcs)
	}
}

func TestOpenSourcesMissing(t *testing.T) {
	_, _, err := openSources(t.Context(), []string{filepath.Join(t.TempDir(), "missing")})
	if !errors.Is(err, pkg.ErrReadInput) {
		t.Errorf("error = %v, want ErrReadInput", err)
	}
}

func TestStdioDefaults(t *testing.T) {
	in, out := stdioFrom(t.Context())
	if in != os.Stdin || out != os.Stdout {
		t.Error("stdioFrom without WithStdio is not os.Stdin/os.Stdout")
	}
}
