package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains builds a case-insensitive substring pattern for
// "LOWER(col) LIKE ? ESCAPE '\'". Wildcards in s match literally.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}
