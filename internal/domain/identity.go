package domain

import (
	"strings"
	"unicode"
)

// DeriveEmail maps an LMS username to a conferencing email by appending the
// institutional domain suffix. Pure concatenation; callers pre-trim.
func DeriveEmail(lmsUsername, domainSuffix string) string {
	return lmsUsername + domainSuffix
}

// ValidateDomain reports whether email belongs to the institutional domain.
// Case-insensitive suffix match.
func ValidateDomain(email, domainSuffix string) bool {
	if domainSuffix == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(email), strings.ToLower(domainSuffix))
}

// SynthesizeIdentity derives a placeholder conferencing identity from an
// email address. Institutional usernames follow a first.last convention, so
// the local part is split on separators to guess name components. This is
// best-effort inference, not authentication proof: the result is always
// marked Synthetic.
func SynthesizeIdentity(email string) ConferencingIdentity {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_'
	})

	firstName := "User"
	lastName := "Name"
	if len(parts) > 0 && parts[0] != "" {
		firstName = parts[0]
	}
	if len(parts) > 1 && parts[1] != "" {
		lastName = parts[1]
	}

	display := make([]string, 0, len(parts))
	for _, part := range parts {
		display = append(display, titleCase(part))
	}
	displayName := strings.Join(display, " ")
	if displayName == "" {
		displayName = titleCase(local)
	}

	return ConferencingIdentity{
		ID:          "synthetic:" + local,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		DisplayName: displayName,
		Synthetic:   true,
	}
}

func titleCase(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
