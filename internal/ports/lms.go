package ports

import (
	"context"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

// LMSGateway is the four-operation REST surface of the LMS web services.
// Implementations hold no mutable state; every call is one HTTP round trip.
type LMSGateway interface {
	ExchangeToken(ctx context.Context, username, password string) (domain.TokenGrant, error)
	FetchIdentity(ctx context.Context, token string) (domain.LMSIdentity, error)
	ListCourses(ctx context.Context, token, userID string) ([]domain.Course, error)
	ListCourseMeetings(ctx context.Context, token string, courseID int64) ([]domain.MeetingLink, error)
}
