package transform

import (
	"strings"
)

const (
	namedPrefix  = "t_"
	inlinePrefix = "c_"

	// escapedSlash stands for "/" inside argument values.
	escapedSlash = "%"
)

// ParseTransformationFromPath splits a request path into its transformation
// tokens and the media path. Every "/"-separated token starting with "t_" or
// "c_" belongs to the chain; the rest form the media path. The chain tokens
// are re-joined with "/" and the media path always starts with "/".
func ParseTransformationFromPath(p string) (chain string, mediaPath string) {
	var chainTokens, pathTokens []string

	for _, token := range strings.Split(p, "/") {
		if token == "" {
			continue
		}

		if isChainToken(token) {
			chainTokens = append(chainTokens, token)
			continue
		}

		pathTokens = append(pathTokens, token)
	}

	return strings.Join(chainTokens, "/"), "/" + strings.Join(pathTokens, "/")
}

func isChainToken(token string) bool {
	return strings.HasPrefix(token, namedPrefix) || strings.HasPrefix(token, inlinePrefix)
}

// HasNamedReference reports whether the chain string refers to a named
// transformation, whose definition can change after the fact.
func HasNamedReference(chain string) bool {
	for _, token := range splitTokens(chain) {
		if strings.HasPrefix(token, namedPrefix) {
			return true
		}
	}

	return false
}

// UnescapeValue turns "%" back into "/".
func UnescapeValue(v string) string {
	return strings.ReplaceAll(v, escapedSlash, "/")
}

// EscapeValue turns "/" into "%" so the value fits in one path segment.
func EscapeValue(v string) string {
	return strings.ReplaceAll(v, "/", escapedSlash)
}

// splitTokens splits a chain string on "/" and drops empty tokens.
func splitTokens(s string) []string {
	raw := strings.Split(s, "/")
	tokens := raw[:0]

	for _, token := range raw {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}

	return tokens
}
