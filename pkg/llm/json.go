package llm

import "strings"

// CleanResponse strips cruft that chat models wrap around generated SQL or
// JSON: markdown code fences, a leading "sql" language identifier, and
// surrounding whitespace.
func CleanResponse(response string) string {
	cleaned := strings.TrimSpace(response)

	if strings.HasPrefix(cleaned, "```") && strings.HasSuffix(cleaned, "```") {
		// Drop the fence line (which may carry a language tag) and the
		// trailing fence.
		if nl := strings.IndexByte(cleaned, '\n'); nl != -1 {
			cleaned = cleaned[nl+1:]
		}
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	if len(cleaned) >= 3 && strings.EqualFold(cleaned[:3], "sql") {
		rest := cleaned[3:]
		// Only treat it as a language identifier when followed by whitespace,
		// so "sqlite_master" style text survives.
		if rest == "" || rest[0] == ' ' || rest[0] == '\n' || rest[0] == '\t' || rest[0] == '\r' {
			cleaned = strings.TrimSpace(rest)
		}
	}

	return cleaned
}

// ExtractObject returns the substring between the first '{' and the last '}'
// of a model reply, tolerating wrapper prose around the JSON object.
// The second return value is false when no object-shaped span exists.
func ExtractObject(response string) (string, bool) {
	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return response[start : end+1], true
}
