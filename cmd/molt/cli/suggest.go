// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/molt/lib/suggest"
)

// maxSuggestDistance catches transpositions and one or two dropped or
// extra characters without suggesting unrelated names.
const maxSuggestDistance = 3

func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = command.Name
	}
	return suggest.Closest(unknown, names, maxSuggestDistance)
}

// suggestFlag finds the first flag in args the flag set does not define
// and returns the closest defined long flag as "--name". Arguments after
// "--" are forwarded, never parsed, so they are not considered.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var defined []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined = append(defined, f.Name)
	})

	for _, arg := range args {
		if arg == "--" {
			return ""
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if flagSet.Lookup(name) != nil {
			continue
		}
		if len(name) == 1 && flagSet.ShorthandLookup(name) != nil {
			continue
		}
		if closest := suggest.Closest(name, defined, maxSuggestDistance); closest != "" {
			return "--" + closest
		}
		return ""
	}
	return ""
}
