//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, read from the VERSION file
// at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It prefixes environment variables, names the
	// configuration directory, and appears in help output.
	Name = "pattern"
	// Description is the one-line summary shown in help output.
	Description = "Micro-template compiler and realizer"
)

// AuthorInfo identifies a project author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the project authors.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}

// VersionString returns the name, version, and authors, as printed by
// --version.
func VersionString() string {
	authors := make([]string, len(Author))
	for i, a := range Author {
		authors[i] = a.Name + " <" + a.Email + ">"
	}

	return Name + " " + Version + " (" + strings.Join(authors, ", ") + ")"
}

// EnvPrefix returns the prefix of environment variables read by the
// command, for example "PATTERN_".
func EnvPrefix() string {
	return strings.ToUpper(Name) + "_"
}
