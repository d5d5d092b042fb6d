// Package sanitize strips markup from user-supplied free text before it is
// stored or echoed back.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer removes every HTML element and attribute. It is safe for
// concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 8

// Text returns s without markup, trimmed. Entities produced by the policy are
// unescaped so plain text round-trips unchanged; the unescaped result goes
// through the policy again until nothing changes, so encoded tags never come
// back as live ones.
func (s *Sanitizer) Text(v string) string {
	current := v
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(current))
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	return strings.TrimSpace(s.policy.Sanitize(current))
}

// Optional sanitises v and returns nil when nothing is left.
func (s *Sanitizer) Optional(v string) *string {
	cleaned := s.Text(v)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// Pointer sanitises a partial-update field: nil stays nil, anything else
// (including "") is cleaned in place.
func (s *Sanitizer) Pointer(v *string) *string {
	if v == nil {
		return nil
	}
	cleaned := s.Text(*v)
	return &cleaned
}
