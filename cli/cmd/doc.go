// Package cmd implements the pattern subcommands: realize, tree, check,
// init, and repl.
//
// Commands read templates from files or standard input and write results
// to the output stored with [WithStdio], which defaults to standard output.
package cmd

var (
	// CacheIdentifier is the kong variable holding the runtime cache
	// directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the configuration file
	// path. It is also the top-level key of that file.
	ConfigIdentifier = "config"
)
