// Package envfile rewrites dotenv-style configuration files by whole-line
// substitution, the way the application's runtime settings are stamped into
// its env template before a deploy.
package envfile

import "strings"

// DefaultTemplate is the env template shipped with the application image. Keys
// left empty here are filled in from deploy settings at task-definition time;
// everything else rides through untouched.
const DefaultTemplate = `APP_NAME=app
APP_ENV=
APP_DEBUG=false
APP_URL=
LOG_CHANNEL=stderr
DB_CONNECTION=mysql
DB_HOST=
DB_PORT=3306
DB_DATABASE=
DB_USERNAME=
DB_PASSWORD=
`

// Substitute replaces, for every line whose text before the first '=' equals a
// key present in values, the entire line with KEY=value. The value is taken
// verbatim: nothing is escaped, so a value containing '=' or a newline yields
// a line set that re-parses differently than it was written. That is a known
// limitation of the format, kept deterministic rather than silently repaired.
// Lines whose key is absent from values, and lines without '=', pass through
// unchanged. Applying the same substitution twice is a no-op.
func Substitute(lines []string, values map[string]string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		key, _, found := strings.Cut(line, "=")
		if !found {
			out[i] = line
			continue
		}
		value, ok := values[key]
		if !ok {
			out[i] = line
			continue
		}
		out[i] = key + "=" + value
	}
	return out
}

// Render applies Substitute to a whole file's content, preserving the line
// structure of the input.
func Render(content string, values map[string]string) string {
	lines := strings.Split(content, "\n")
	return strings.Join(Substitute(lines, values), "\n")
}
