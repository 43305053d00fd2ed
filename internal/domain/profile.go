package domain

type ProfileID string

// SiteProfile names one LMS installation and the policy bound to it: the
// web-service shortname used for token exchange and the institutional email
// domain used to bridge LMS usernames to conferencing identities.
type SiteProfile struct {
	ID          ProfileID
	Name        string
	SiteURL     string
	Service     string
	EmailDomain string
}
