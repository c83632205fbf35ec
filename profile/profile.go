package profile

// Tag is the build tag that enables profiling.
const Tag = `pprof`

// Stopper stops a running profile and flushes it to disk.
type Stopper interface{ Stop() }

// Profiler describes one profiling session.
type Profiler struct {
	// Mode is one of [Modes]. Empty disables profiling.
	Mode string
	// Path is the output directory. Empty selects the working directory.
	Path string
	// Quiet suppresses the profiler's own log lines.
	Quiet bool
}

// Start begins profiling. Start and the returned Stop are always safe to
// call, and do nothing when profiling is compiled out or Mode is empty or
// unknown.
func (p Profiler) Start() Stopper {
	if !Enabled || p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
