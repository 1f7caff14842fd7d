package config

import (
	"fmt"
	"regexp"
)

// CompilePatterns compiles regular expressions that must match a whole
// string: "foo" matches "foo" but not "foobar". Use ".*foo.*" to match a
// substring.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("^(?:" + p + ")$")
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}
