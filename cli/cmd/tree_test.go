package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/pattern/pkg"
)

func TestTreeRun(t *testing.T) {
	const src = "Hi {upper:{name}}!"

	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var out bytes.Buffer

			ctx := WithStdio(t.Context(), strings.NewReader(src), &out)
			cmd := Tree{Format: format, Indent: 2, Source: stdinSource}

			if err := cmd.Run(ctx, testConfig(t)); err != nil {
				t.Fatal(err)
			}

			if !strings.HasSuffix(out.String(), "\n") {
				t.Error("output lacks trailing newline")
			}

			var tree map[string]any

			if format == "json" {
				if err := json.Unmarshal(out.Bytes(), &tree); err != nil {
					t.Fatal(err)
				}
			} else if err := yaml.Unmarshal(out.Bytes(), &tree); err != nil {
				t.Fatal(err)
			}

			if len(tree) == 0 {
				t.Errorf("empty tree from %q", out.String())
			}

			if !strings.Contains(out.String(), "upper") {
				t.Errorf("tree does not mention upper:\n%s", out.String())
			}
		})
	}
}

func TestTreeErrors(t *testing.T) {
	cmd := Tree{Format: "toml", Source: stdinSource}

	err := cmd.Run(WithStdio(t.Context(), strings.NewReader("x"), &bytes.Buffer{}), testConfig(t))
	if !errors.Is(err, pkg.ErrInvalidFormat) {
		t.Errorf("error = %v, want ErrInvalidFormat", err)
	}

	cmd = Tree{Format: "json", Source: stdinSource}

	err = cmd.Run(WithStdio(t.Context(), strings.NewReader("{a"), &bytes.Buffer{}), testConfig(t))
	if !errors.Is(err, ErrCompile) {
		t.Errorf("error = %v, want ErrCompile", err)
	}
}
