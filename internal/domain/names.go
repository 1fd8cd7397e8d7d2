package domain

import "strings"

// NormalizeName lowercases a person's name and collapses internal
// whitespace so "Jane  Doe " matches "jane doe".
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
