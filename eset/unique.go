package eset

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MakeUnique returns a copy of names in which every repeated name receives a
// numeric suffix, so that all entries are distinct. The first occurrence of a
// name is left untouched; later ones become name.1, name.2, ... using the
// smallest counter that does not collide with any other original or generated
// name. Order is preserved and the result is deterministic.
//
// E.g., ["A", "A", "B"] becomes ["A", "A.1", "B"].
func MakeUnique(names []string) ([]string, error) {
	out := make([]string, len(names))
	copy(out, names)

	used := make(map[string]struct{}, len(names))
	for _, v := range names {
		used[v] = struct{}{}
	}

	seen := make(map[string]struct{}, len(names))
	counters := make(map[string]int)

	for i, name := range names {
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			continue
		}

		// There are never more than len(names) labels, so one of the first
		// len(names)+1 counters must be free.
		resolved := false
		for cnt := counters[name] + 1; cnt <= len(names)+1; cnt++ {
			candidate := name + "." + strconv.Itoa(cnt)
			if _, taken := used[candidate]; taken {
				continue
			}

			out[i] = candidate
			used[candidate] = struct{}{}
			counters[name] = cnt
			resolved = true
			break
		}

		if !resolved {
			return nil, fmt.Errorf("%w: %q at position %d", ErrDuplicateLabelUnresolvable, name, i)
		}
	}

	return out, nil
}

// MakeNames turns arbitrary identifiers into syntactically valid names:
// characters other than letters, digits, '.' and '_' become '.', names that
// start with a digit, an underscore or a dot followed by a digit get an "X"
// prefix, and empty names become "X". The result is then passed through
// MakeUnique.
func MakeNames(names []string) ([]string, error) {
	out := make([]string, len(names))

	for i, name := range names {
		var b strings.Builder
		for _, r := range name {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_' {
				b.WriteRune(r)
				continue
			}
			b.WriteRune('.')
		}

		clean := b.String()
		switch {
		case clean == "":
			clean = "X"
		case startsInvalid(clean):
			clean = "X" + clean
		}

		out[i] = clean
	}

	return MakeUnique(out)
}

func startsInvalid(s string) bool {
	r := []rune(s)
	if unicode.IsDigit(r[0]) || r[0] == '_' {
		return true
	}

	return r[0] == '.' && len(r) > 1 && unicode.IsDigit(r[1])
}
