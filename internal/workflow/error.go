package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrDanglingReference = errors.New("dangling rule reference")
	ErrUnknownEntry      = errors.New("unknown entry rule")
	ErrRuleCycle         = errors.New("rule cycle")
	ErrDuplicateRule     = errors.New("duplicate rule")

	ErrVolumeOverflow = errors.New("box volume overflows int64")
)

// ConfigurationError reports a malformed rule table. Kind is one of the
// Err* sentinels above.
type ConfigurationError struct {
	Kind   error
	Rule   string
	Target Label
}

// [ConfigurationError] implements [error]
func (e *ConfigurationError) Error() string {
	switch {
	case e.Target != "":
		return fmt.Sprintf("%s: rule %q -> %q", e.Kind, e.Rule, e.Target)
	case e.Rule != "":
		return fmt.Sprintf("%s: %q", e.Kind, e.Rule)
	default:
		return e.Kind.Error()
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Kind
}

type ParseError struct {
	Line   int
	Text   string
	Reason string
}

// [ParseError] implements [error]
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Text)
}
