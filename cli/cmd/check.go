package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardnew/pattern/config"
	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
)

// Check compiles templates and reports their node counts.
type Check struct {
	Files []string `arg:"" help:"Template files, or '-' for stdin." name:"file" optional:""`
}

// Run executes the check command. Every file is checked; the returned error
// joins all compile failures.
func (c *Check) Run(ctx context.Context, cfg *config.Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, closeAll, err := openSources(ctx, c.Files)
	if err != nil {
		return err
	}
	defer closeAll()

	_, w := stdioFrom(ctx)

	var errs []error

	for _, src := range srcs {
		tmpl, err := lang.PrepareReader(ctx, src, cfg.Options()...)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", src.name, err)

			errs = append(errs, ErrCompile.With(slog.String("template", src.name)).Wrap(err))

			continue
		}

		s := tmpl.Stats()

		log.DebugContext(ctx, "template ok",
			slog.String("template", src.name),
			slog.Int("owned", s.Owned),
			slog.Int("shared", s.Shared),
			slog.Int("literals", s.Literals),
		)

		fmt.Fprintf(w, "%s: ok (expressions=%d shared=%d literals=%d)\n",
			src.name, s.Owned, s.Shared, s.Literals)
	}

	return errors.Join(errs...)
}
