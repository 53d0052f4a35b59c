package macrodex

import (
	"fmt"
	"strings"
)

// callSeparator separates namespace and macro name in a qualified call.
const callSeparator = "::"

// ValidateName checks that a template name is safe for use in paths and cache keys.
// Names are slash-separated segments (e.g. "forms/input.html"); empty names,
// empty or dot segments, absolute paths, backslashes and colons are rejected.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.ContainsAny(name, `\:`) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for seg := range strings.SplitSeq(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return nil
}

// SplitCall splits a qualified macro call "namespace::macro" into its parts.
func SplitCall(call string) (namespace, macro string, err error) {
	namespace, macro, ok := strings.Cut(call, callSeparator)
	if !ok || namespace == "" || macro == "" || strings.Contains(macro, callSeparator) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCall, call)
	}
	return namespace, macro, nil
}
