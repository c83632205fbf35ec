package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/pattern/log"
)

// resolve returns a [kong.ConfigurationLoader] for YAML files that keep
// flag values in a mapping under the top-level key name:
//
//	config:
//	  log-level: debug
//	  max_depth: 32
//	  strict: true
//
// Keys may use hyphens or underscores. Command-line flags override file
// values. A file that does not decode, or has no such mapping, sets nothing.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		var doc map[string]any

		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			if err != io.EOF {
				log.WarnContext(ctx, "ignoring configuration file", slog.Any("error", err))
			}

			return flagValues{}, nil
		}

		section, ok := doc[name].(map[string]any)
		if !ok {
			return flagValues{}, nil
		}

		values := make(flagValues, len(section))
		for k, v := range section {
			values[strings.ReplaceAll(k, "_", "-")] = flagValue(v)
		}

		return values, nil
	}
}

// flagValue converts a decoded YAML scalar for Kong, which parses numbers
// from strings.
func flagValue(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = flagValue(e)
		}

		return out
	}

	return v
}

// flagValues implements [kong.Resolver] over a flat map keyed by flag name.
type flagValues map[string]any

// Validate implements [kong.Resolver].
func (flagValues) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r flagValues) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := r[flag.Name]; ok {
		return v, nil
	}

	return nil, nil
}
