package service

import "strings"

// CanonicalizeEmail lowers and trims an email address so uniqueness checks
// and login lookups are case-insensitive. The address is stored as entered;
// only the canonical form is used as a key.
func CanonicalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
