// Package cli contains the command line interface for pattern.
//
// # Usage
//
//	pattern [flags] [file ...]          realize templates (default command)
//	pattern realize -t 'Hi {name}' -v vars.yaml
//	pattern tree -f yaml greeting.tmpl
//	pattern check *.tmpl
//	pattern repl
//	pattern init
//
// # Configuration
//
// Defaults are read from PATTERN_* environment variables (see package
// config), then from config.yaml in the user configuration directory, then
// from flags. The file keeps flag values under the top-level key "config":
//
//	config:
//	  log-level: debug
//	  max-depth: 32
//	  strict: true
//
// # Profiling
//
// Profiling flags exist only when built with the pprof tag:
//
//	go build -tags pprof
//	pattern --pprof-mode=cpu check big.tmpl
package cli
