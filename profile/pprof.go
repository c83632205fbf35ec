//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

// Enabled reports whether profiling is compiled in.
const Enabled = true

// Modes returns the supported profiling modes in sorted order.
var Modes = sync.OnceValue(
	func() []string {
		return slices.Sorted(maps.Keys(mode))
	},
)

var mode = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// option adds a setting to the list passed to [profile.Start].
type option func([]func(*profile.Profile)) []func(*profile.Profile)

func start(p Profiler) Stopper {
	fn, ok := mode[p.Mode]
	if !ok {
		return ignore{}
	}

	settings := []func(*profile.Profile){fn, profile.NoShutdownHook}

	for _, opt := range []option{withPath(p.Path), withQuiet(p.Quiet)} {
		settings = opt(settings)
	}

	return profile.Start(settings...)
}

func withPath(path string) option {
	return func(s []func(*profile.Profile)) []func(*profile.Profile) {
		if path == "" {
			return s
		}

		return append(s, profile.ProfilePath(path))
	}
}

func withQuiet(quiet bool) option {
	return func(s []func(*profile.Profile)) []func(*profile.Profile) {
		if !quiet {
			return s
		}

		return append(s, profile.Quiet)
	}
}
