package utils

import "regexp"

var tokenPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// RenderTokens substitutes {{tokenName}} placeholders with values from the
// token map. Unknown placeholders are left verbatim so a typo in a template
// never drops content. Substitution is literal, not escaping-aware; the
// caller owns output-context safety (HTML vs plain text).
func RenderTokens(template string, tokens map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(match string) string {
		key := match[2 : len(match)-2]
		if value, ok := tokens[key]; ok && value != "" {
			return value
		}
		return match
	})
}
