package cli

import (
	"context"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/ardnew/pattern/cli/cmd"
	"github.com/ardnew/pattern/config"
	"github.com/ardnew/pattern/pkg"
)

// engineConfig holds the template limits shared by every command.
type engineConfig struct {
	MaxDepth  int `default:"${maxDepth}"  help:"Maximum expression nesting depth."`
	LoopLimit int `default:"${loopLimit}" help:"Maximum iterations of one loop."`
}

func (*engineConfig) vars(cfg *config.Config) kong.Vars {
	return kong.Vars{
		"maxDepth":  strconv.Itoa(cfg.MaxDepth),
		"loopLimit": strconv.Itoa(cfg.LoopLimit),
		"redisAddr": cfg.RedisAddr,
		"strict":    strconv.FormatBool(cfg.Strict),
	}
}

func (*engineConfig) group() kong.Group {
	return kong.Group{Key: "engine", Title: "Template options"}
}

// apply copies the parsed limits into cfg.
func (e *engineConfig) apply(cfg *config.Config) error {
	cfg.MaxDepth = e.MaxDepth
	cfg.LoopLimit = e.LoopLimit

	return cfg.Validate()
}

// CLI is the top-level command-line interface for pattern.
type CLI struct {
	Log    logConfig    `embed:"" group:"log"    prefix:"log-"`
	Pprof  pprofConfig  `embed:"" group:"pprof"  prefix:"pprof-"`
	Engine engineConfig `embed:"" group:"engine"`

	Version kong.VersionFlag `help:"Print version and exit."`

	Realize cmd.Realize `cmd:"" default:"withargs" help:"Realize templates (default)"`
	Tree    cmd.Tree    `cmd:""                    help:"Print the compiled expression graph"`
	Check   cmd.Check   `cmd:""                    help:"Compile templates and report errors"`
	Repl    cmd.Repl    `cmd:""                    help:"Realize templates interactively"`
	Init    cmd.Init    `cmd:""                    help:"Write the configuration file"`
}

// Run executes the pattern CLI with the given context and arguments.
// Defaults come from PATTERN_* environment variables, then the
// configuration file, then flags.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"version":            pkg.VersionString(),
	}.
		CloneWith(cli.Log.vars(cfg.Level())).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Engine.vars(cfg))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{
			cli.Engine.group(), cli.Log.group(), cli.Pprof.group(),
		}),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.Bind(cfg),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx, cmd.ConfigIdentifier), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := cli.Engine.apply(cfg); err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	cli.Log.start(ctx)

	// No-op unless built with the pprof tag and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx)
}
