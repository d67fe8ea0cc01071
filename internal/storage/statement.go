package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var returningID = regexp.MustCompile(`(?i)\s*RETURNING\s+id\s*;?\s*$`)

// hasReturningID reports whether the statement ends with "RETURNING id".
func hasReturningID(query string) bool {
	return returningID.MatchString(query)
}

// stripReturningID removes a trailing "RETURNING id" clause.
func stripReturningID(query string) string {
	return returningID.ReplaceAllString(query, "")
}

// toSQLitePlaceholders rewrites $n placeholders to "?" and returns the
// arguments reordered to match, so "$2 ... $1" and repeated "$1" bind
// correctly. Placeholders inside quoted literals or identifiers are left alone.
func toSQLitePlaceholders(query string, args []any) (string, []any, error) {
	if !strings.Contains(query, "$") {
		return query, args, nil
	}

	var (
		b     strings.Builder
		out   []any
		quote byte
	)
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			b.WriteByte(c)
			continue
		}
		if c != '$' {
			b.WriteByte(c)
			continue
		}

		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		n, err := strconv.Atoi(query[i+1 : j])
		if err != nil || n < 1 {
			return "", nil, fmt.Errorf("invalid placeholder %q", query[i:j])
		}
		if n > len(args) {
			return "", nil, fmt.Errorf("placeholder $%d has no argument (got %d)", n, len(args))
		}
		b.WriteByte('?')
		out = append(out, args[n-1])
		i = j - 1
	}
	return b.String(), out, nil
}

// splitStatements splits a DDL script on semicolons, dropping empty parts.
func splitStatements(script string) []string {
	var stmts []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s+";")
		}
	}
	return stmts
}

// toInt64 normalizes the identifier types drivers hand back.
func toInt64(v any) (int64, error) {
	switch id := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return id, nil
	case int32:
		return int64(id), nil
	case int:
		return int64(id), nil
	case float64:
		return int64(id), nil
	case []byte:
		return strconv.ParseInt(string(id), 10, 64)
	case string:
		return strconv.ParseInt(id, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported id type %T", v)
	}
}
