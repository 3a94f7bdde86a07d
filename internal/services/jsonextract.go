package services

import "strings"

// ExtractJSONObject locates the first brace-balanced JSON object in a
// free-form model response. Models routinely wrap their JSON in prose or
// markdown fences, and a greedy first-{-to-last-} slice truncates nested
// objects when trailing text contains a brace, so this walks the braces
// explicitly. Strings and escapes are honored so braces inside values do
// not affect the depth count.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}
