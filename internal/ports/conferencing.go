package ports

import (
	"context"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

// ConferencingGateway exchanges server credentials for a provider token and
// resolves the identity behind it.
type ConferencingGateway interface {
	ExchangeServerToken(ctx context.Context) (domain.ConferencingToken, error)
	FetchUserInfo(ctx context.Context, accessToken string) (domain.ConferencingIdentity, error)
}

// JoinRequest carries what the conferencing SDK needs to join a meeting as
// a participant.
type JoinRequest struct {
	UserName      string
	MeetingNumber string
	Password      string
}

// StartRequest starts a meeting as host; the access token is the host's ZAK.
type StartRequest struct {
	UserName      string
	MeetingNumber string
	AccessToken   string
}

// MeetingLauncher hands a meeting off to the conferencing SDK. The SDK's
// internal meeting protocol is opaque; this is the whole contract.
type MeetingLauncher interface {
	Join(ctx context.Context, req JoinRequest) error
	Start(ctx context.Context, req StartRequest) error
}
