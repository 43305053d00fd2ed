package ports

import (
	"context"

	"github.com/nlasala/campus-meet-cli/internal/domain"
)

// ProfileRepository persists named LMS site profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id domain.ProfileID) (domain.SiteProfile, error)
	List(ctx context.Context) ([]domain.SiteProfile, error)
	Save(ctx context.Context, profile domain.SiteProfile) error
}
