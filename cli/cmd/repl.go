package cmd

import (
	"context"

	"github.com/ardnew/pattern/cli/cmd/repl"
	"github.com/ardnew/pattern/config"
	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
)

// Repl starts an interactive session that realizes each line entered.
type Repl struct {
	Vars  string            `help:"YAML or JSON file of caller variables."                    short:"v" type:"path"`
	Set   map[string]string `help:"Set a caller variable, overriding --vars."                           placeholder:"NAME=VALUE"`
	Redis string            `help:"Redis address serving live objects."       default:"${redisAddr}"   placeholder:"ADDR"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, cfg *config.Config) error {
	vars, err := LoadVars(r.Vars)
	if err != nil {
		return err
	}

	for k, v := range r.Set {
		vars[k] = lang.String(v)
	}

	objs, closeObjs, err := attachObjects(ctx, r.Redis, cfg)
	if err != nil {
		return err
	}
	defer closeObjs()

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	return repl.Run(ctx, repl.Options{
		Vars:     vars,
		Objects:  objs,
		CacheDir: cacheDir,
		Logger:   log.Default(),
		Template: cfg.Options(),
	})
}
