package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		file string
		args []string
		want resolverCLI
	}{
		{
			name: "hyphen and underscore keys",
			file: "config:\n  max_depth: 7\n  strict: true\n  tag: [a, b]\n  name: x\n",
			want: resolverCLI{MaxDepth: 7, Strict: true, Tag: []string{"a", "b"}, Name: "x"},
		},
		{
			name: "flags override file",
			file: "config:\n  max-depth: 7\n  name: x\n",
			args: []string{"--name=y"},
			want: resolverCLI{MaxDepth: 7, Name: "y"},
		},
		{
			name: "other section",
			file: "other:\n  max-depth: 7\n",
			want: resolverCLI{MaxDepth: 1},
		},
		{
			name: "empty file",
			file: "",
			want: resolverCLI{MaxDepth: 1},
		},
		{
			name: "malformed",
			file: "config: [\n",
			want: resolverCLI{MaxDepth: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, err := resolve(t.Context(), "config")(strings.NewReader(tt.file))
			if err != nil {
				t.Fatal(err)
			}

			var cli resolverCLI

			parser, err := kong.New(&cli, kong.Resolvers(resolver))
			if err != nil {
				t.Fatal(err)
			}

			if _, err := parser.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			if cli.MaxDepth != tt.want.MaxDepth || cli.Strict != tt.want.Strict ||
				cli.Name != tt.want.Name || strings.Join(cli.Tag, ",") != strings.Join(tt.want.Tag, ",") {
				t.Errorf("parsed %+v, want %+v", cli, tt.want)
			}
		})
	}
}

type resolverCLI struct {
	MaxDepth int      `default:"1"`
	Strict   bool
	Tag      []string
	Name     string
}

func TestFlagValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{uint64(3), "3"},
		{int64(-3), "-3"},
		{1.5, "1.5"},
		{"s", "s"},
		{true, true},
	}

	for _, tt := range tests {
		if got := flagValue(tt.in); got != tt.want {
			t.Errorf("flagValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
