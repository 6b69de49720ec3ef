package token

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans string values before they are spliced into markup.
type Sanitizer interface {
	Sanitize(string) string
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(string) string

func (f SanitizerFunc) Sanitize(s string) string {
	return f(s)
}

var (
	ugcPolicyOnce    sync.Once
	ugcPolicy        *bluemonday.Policy
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// HTMLSanitizer keeps user-generated-content markup (links, emphasis,
// lists, tables) and drops scripts, handlers and unknown elements.
func HTMLSanitizer() Sanitizer {
	ugcPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		ugcPolicy = policy
	})
	return ugcPolicy
}

// StrictSanitizer strips every element, leaving escaped text.
func StrictSanitizer() Sanitizer {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}
