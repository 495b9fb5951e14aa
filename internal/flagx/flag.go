// Package flagx supports the two-phase config parsing used by both binaries:
// the config-file flags are read first, then the full flag set is parsed over
// the values loaded from the file.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the arguments belonging to allowedFlags, in their
// original order. Both "-f value" and "-f=value" forms are recognized; a
// dash-prefixed token following an allowed flag is treated as the next flag,
// not a value. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	keep := make(map[string]bool, len(allowedFlags))
	for _, name := range allowedFlags {
		keep[name] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(name, "-") {
			if keep[name] {
				out = append(out, arg)
			}
			continue
		}

		if !keep[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// JsonConfigFlags extracts the config file path from -c/-config in os.Args
// without disturbing flags owned by other packages. Returns "" when neither
// flag is present; when both are, the later one wins.
func JsonConfigFlags() string {
	fs := flag.NewFlagSet("json", flag.ContinueOnError)

	var path string
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")

	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))
	return path
}
