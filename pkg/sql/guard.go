// Package sql validates model-generated SQL before it reaches the database.
package sql

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyStatement indicates there was no SQL to execute.
	ErrEmptyStatement = errors.New("empty SQL statement")

	// ErrMultipleStatements indicates the query contains multiple SQL
	// statements; only single statements are permitted.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed")

	// ErrNotReadOnly indicates the statement is not a read query. Generated
	// SQL answers questions; it never mutates data.
	ErrNotReadOnly = errors.New("only read-only statements are allowed")
)

// readPrefixes are the statement keywords accepted from the model.
var readPrefixes = []string{"SELECT", "WITH", "SHOW", "DESCRIBE", "DESC", "EXPLAIN"}

// ValidateGenerated normalizes a generated statement and rejects anything
// unsafe to run: empty text, statement batches, and non-read statements.
// The returned statement has the trailing semicolon stripped.
func ValidateGenerated(query string) (string, error) {
	normalized := strings.TrimSpace(query)
	if normalized == "" {
		return "", ErrEmptyStatement
	}

	normalized = strings.TrimSpace(strings.TrimSuffix(normalized, ";"))
	if normalized == "" {
		return "", ErrEmptyStatement
	}
	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}

	upper := strings.ToUpper(normalized)
	for _, prefix := range readPrefixes {
		if strings.HasPrefix(upper, prefix+" ") || strings.HasPrefix(upper, prefix+"\n") || upper == prefix {
			return normalized, nil
		}
	}
	return "", ErrNotReadOnly
}

// hasSemicolonOutsideStrings reports whether any semicolon sits outside a
// quoted literal. A semicolon inside '...' or "..." is data, not a statement
// separator.
func hasSemicolonOutsideStrings(query string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch state {
		case stateNormal:
			switch ch {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if ch == '\'' {
				// '' escapes a quote inside the literal.
				if i+1 < len(runes) && runes[i+1] == '\'' {
					i++
					continue
				}
				state = stateNormal
			}
		case stateDoubleQuote:
			if ch == '"' {
				state = stateNormal
			}
		}
	}
	return false
}
