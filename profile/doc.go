// Package profile starts optional runtime profiling of the pattern command.
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o pattern .
//	pattern --pprof-mode=cpu realize page.tmpl
//
// Without the tag, [Profiler.Start] does nothing and [Modes] is empty.
// With it, profiles are written by [github.com/pkg/profile] to the
// configured directory, one file per mode (cpu.pprof, mem.pprof, and so
// on), and the [net/http/pprof] handlers are registered on the default
// mux.
//
// Inspect a profile with the pprof tool:
//
//	go tool pprof -http=: ~/.cache/pattern/pprof/cpu.pprof
package profile
