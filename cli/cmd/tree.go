package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/ardnew/pattern/config"
	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/pkg"
)

// Tree prints the compiled expression graph of a template.
type Tree struct {
	Format string `default:"json" enum:"json,yaml"             help:"Output format (${enum})." short:"f"`
	Indent int    `default:"2"                                 help:"Indent width for JSON."   short:"i"`
	Source string `default:"-"    help:"Template file, or '-' for stdin." arg:"" name:"file"`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context, cfg *config.Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, closeAll, err := openSources(ctx, []string{t.Source})
	if err != nil {
		return err
	}
	defer closeAll()

	tmpl, err := lang.PrepareReader(ctx, srcs[0], cfg.Options()...)
	if err != nil {
		return ErrCompile.With(slog.String("template", srcs[0].name)).Wrap(err)
	}

	buf, err := t.marshal(tmpl)
	if err != nil {
		return err
	}

	_, w := stdioFrom(ctx)

	if !bytes.HasSuffix(buf, []byte("\n")) {
		buf = append(buf, '\n')
	}

	_, err = w.Write(buf)

	return err
}

func (t *Tree) marshal(tmpl *lang.Template) ([]byte, error) {
	switch strings.ToLower(t.Format) {
	case "json":
		raw, err := tmpl.MarshalJSON()
		if err != nil {
			return nil, ErrJSONMarshal.Wrap(err)
		}

		if t.Indent <= 0 {
			return raw, nil
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", strings.Repeat(" ", t.Indent)); err != nil {
			return nil, ErrJSONMarshal.Wrap(err)
		}

		return buf.Bytes(), nil

	case "yaml":
		buf, err := tmpl.MarshalYAML()
		if err != nil {
			return nil, ErrYAMLMarshal.Wrap(err)
		}

		return buf, nil
	}

	return nil, pkg.ErrInvalidFormat.Wrapf("%q (want json or yaml)", t.Format)
}
