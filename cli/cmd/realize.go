package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/goccy/go-yaml"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/pattern/config"
	"github.com/ardnew/pattern/lang"
	"github.com/ardnew/pattern/log"
	"github.com/ardnew/pattern/pkg"
	"github.com/ardnew/pattern/store"
)

// Realize compiles templates and prints their realized output.
type Realize struct {
	Files    []string          `arg:"" help:"Template files, or '-' for stdin."                  name:"file"       optional:""`
	Template []string          `       help:"Template text to realize. May be repeated."                           placeholder:"TEXT" short:"t"`
	Vars     string            `       help:"YAML or JSON file of caller variables."                                                  short:"v" type:"path"`
	Set      map[string]string `       help:"Set a caller variable, overriding --vars."                            placeholder:"NAME=VALUE"`
	Redis    string            `       help:"Redis address serving live objects."           default:"${redisAddr}" placeholder:"ADDR"`
	Strict   bool              `       help:"Fail at the first evaluation error."           default:"${strict}"`
}

// job is one template to realize.
type job struct {
	name string
	src  string
	r    io.Reader
}

// Run executes the realize command. Each template gets its own compiled
// instance and State, so templates are realized concurrently.
func (r *Realize) Run(ctx context.Context, cfg *config.Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	env, err := r.env()
	if err != nil {
		return err
	}

	objs, closeObjs, err := attachObjects(ctx, r.Redis, cfg)
	if err != nil {
		return err
	}
	defer closeObjs()

	jobs, closeAll, err := r.jobs(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	opts := append(cfg.Options(), lang.WithLogger(log.Default()))
	if r.Strict {
		opts = append(opts, lang.WithPolicy(lang.PolicyStrict))
	}

	out := make([]string, len(jobs))
	errs := make([]error, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, j := range jobs {
		g.Go(func() error {
			out[i], errs[i] = realizeJob(gctx, j, env, objs, opts)
			if errs[i] != nil && r.Strict {
				return errs[i]
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	_, w := stdioFrom(ctx)

	for i, s := range out {
		if _, err := io.WriteString(w, s+"\n"); err != nil {
			return err
		}

		if errs[i] != nil {
			log.WarnContext(ctx, "realized with errors",
				slog.String("template", jobs[i].name),
				slog.Any("error", errs[i]),
			)
		}
	}

	return nil
}

func realizeJob(
	ctx context.Context,
	j job,
	env *lang.Env,
	objs *lang.Objects,
	opts []lang.Option,
) (string, error) {
	var (
		t   *lang.Template
		err error
	)

	if j.r != nil {
		t, err = lang.PrepareReader(ctx, j.r, opts...)
	} else {
		t, err = lang.PrepareCached(ctx, j.src, opts...)
	}

	if err != nil {
		return "", ErrCompile.With(slog.String("template", j.name)).Wrap(err)
	}

	st := lang.NewState(t)
	st.SetObjects(objs)

	s, err := st.Realize(ctx, env)
	if err != nil {
		return s, ErrRealize.With(slog.String("template", j.name)).Wrap(err)
	}

	return s, nil
}

// jobs lists inline templates first, then files. Standard input is read
// only when no inline template is given or "-" is named explicitly.
func (r *Realize) jobs(ctx context.Context) ([]job, func(), error) {
	jobs := make([]job, 0, len(r.Template)+len(r.Files))

	for i, s := range r.Template {
		jobs = append(jobs, job{name: "template[" + strconv.Itoa(i) + "]", src: s})
	}

	if len(r.Files) == 0 && len(r.Template) > 0 {
		return jobs, func() {}, nil
	}

	srcs, closeAll, err := openSources(ctx, r.Files)
	if err != nil {
		return nil, nil, err
	}

	for _, s := range srcs {
		jobs = append(jobs, job{name: s.name, r: s.Reader})
	}

	return jobs, closeAll, nil
}

// env builds the caller variables from --vars and --set.
func (r *Realize) env() (*lang.Env, error) {
	vars, err := LoadVars(r.Vars)
	if err != nil {
		return nil, err
	}

	for k, v := range r.Set {
		vars[k] = lang.String(v)
	}

	return lang.NewEnv(vars), nil
}

// LoadVars decodes a YAML or JSON mapping into caller variables.
// An empty path yields no variables.
func LoadVars(path string) (lang.Vars, error) {
	vars := make(lang.Vars)

	if path == "" {
		return vars, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkg.ErrReadInput.Wrap(err)
	}

	var raw map[string]any

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, pkg.ErrDecodeVars.Wrapf("%s: %w", path, err)
	}

	for k, v := range raw {
		vars[k] = lang.ValueOf(v)
	}

	return vars, nil
}

// attachObjects returns the live object registry, backed by Redis when addr
// is not empty.
func attachObjects(
	ctx context.Context,
	addr string,
	cfg *config.Config,
) (*lang.Objects, func(), error) {
	if addr == "" {
		return lang.NewObjects(), func() {}, nil
	}

	rdb := store.New(store.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   cfg.RedisPrefix,
		Timeout:  cfg.RedisTimeout,
		Logger:   log.Default(),
	})

	if err := rdb.Ping(ctx); err != nil {
		_ = rdb.Close()

		return nil, nil, ErrRedis.With(slog.String("addr", addr)).Wrap(err)
	}

	log.DebugContext(ctx, "redis objects attached", slog.String("addr", addr))

	return lang.NewObjects(rdb), func() { _ = rdb.Close() }, nil
}
