package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lmsadapter "github.com/nlasala/campus-meet-cli/internal/adapters/lms"
	coursesadapter "github.com/nlasala/campus-meet-cli/internal/adapters/render/courses"
	tomlrepo "github.com/nlasala/campus-meet-cli/internal/adapters/repo/toml"
	chainstore "github.com/nlasala/campus-meet-cli/internal/adapters/secrets/chain"
	zoomadapter "github.com/nlasala/campus-meet-cli/internal/adapters/zoom"
	"github.com/nlasala/campus-meet-cli/internal/application"
	"github.com/nlasala/campus-meet-cli/internal/domain"
	"github.com/nlasala/campus-meet-cli/internal/ports"
	"github.com/spf13/viper"
)

type app struct {
	store           ports.CredentialStore
	profiles        ports.ProfileRepository
	site            siteConfig
	zoom            zoomConfig
	launcher        ports.MeetingLauncher
	coursesRenderer func([]domain.CourseMeetings, coursesadapter.RenderOptions) (string, error)
	httpClient      *http.Client
	now             func() time.Time
}

type siteConfig struct {
	URL         string
	Service     string
	EmailDomain string
}

type zoomConfig struct {
	AccountID    string
	ClientID     string
	ClientSecret string
	AuthBaseURL  string
	APIBaseURL   string
}

func wireApp() (*app, error) {
	repo, err := tomlrepo.NewRepository(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	store, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(homeDir, ".campusmeet", "credentials"))
	if err != nil {
		return nil, fmt.Errorf("wire credential store chain: %w", err)
	}

	return &app{
		store:    store,
		profiles: repo,
		site: siteConfig{
			URL:         os.Getenv("CM_SITE_URL"),
			Service:     envOrDefault("CM_SITE_SERVICE", lmsadapter.DefaultService),
			EmailDomain: os.Getenv("CM_EMAIL_DOMAIN"),
		},
		zoom: zoomConfig{
			AccountID:    os.Getenv("CM_ZOOM_ACCOUNT_ID"),
			ClientID:     os.Getenv("CM_ZOOM_CLIENT_ID"),
			ClientSecret: os.Getenv("CM_ZOOM_CLIENT_SECRET"),
			AuthBaseURL:  os.Getenv("CM_ZOOM_AUTH_URL"),
			APIBaseURL:   os.Getenv("CM_ZOOM_API_URL"),
		},
		launcher:        zoomadapter.NewLauncher(),
		coursesRenderer: coursesadapter.Render,
		httpClient:      http.DefaultClient,
		now:             time.Now,
	}, nil
}

// resolveSite applies a stored profile on top of the environment defaults.
// Profile values win; unset profile fields fall through.
func (a *app) resolveSite(ctx context.Context, profileID string) (siteConfig, error) {
	site := a.site
	if profileID == "" {
		return site, nil
	}

	profile, err := a.profiles.GetByID(ctx, domain.ProfileID(profileID))
	if err != nil {
		return siteConfig{}, fmt.Errorf("load profile %q: %w", profileID, err)
	}

	if profile.SiteURL != "" {
		site.URL = profile.SiteURL
	}
	if profile.Service != "" {
		site.Service = profile.Service
	}
	if profile.EmailDomain != "" {
		site.EmailDomain = profile.EmailDomain
	}

	return site, nil
}

func (a *app) lmsGateway(site siteConfig) ports.LMSGateway {
	return &lmsadapter.Client{
		BaseURL:    site.URL,
		Service:    site.Service,
		HTTPClient: a.httpClient,
	}
}

func (a *app) zoomGateway() ports.ConferencingGateway {
	return &zoomadapter.OAuthClient{
		AccountID:    a.zoom.AccountID,
		ClientID:     a.zoom.ClientID,
		ClientSecret: a.zoom.ClientSecret,
		AuthBaseURL:  a.zoom.AuthBaseURL,
		APIBaseURL:   a.zoom.APIBaseURL,
		HTTPClient:   a.httpClient,
	}
}

func (a *app) sessionService(site siteConfig) *application.SessionService {
	return application.NewSessionService(a.lmsGateway(site), a.store, ports.SystemClock{})
}

func (a *app) bridgeService(site siteConfig) *application.Bridge {
	return application.NewBridge(a.zoomGateway(), a.store, ports.SystemClock{}, site.EmailDomain)
}

func (a *app) courseService(site siteConfig) *application.CourseService {
	return application.NewCourseService(a.lmsGateway(site), contentTimeoutFromEnv())
}

func contentTimeoutFromEnv() time.Duration {
	raw := os.Getenv("CM_CONTENT_TIMEOUT")
	if raw == "" {
		return application.DefaultContentTimeout
	}

	timeout, err := time.ParseDuration(raw)
	if err != nil || timeout <= 0 {
		return application.DefaultContentTimeout
	}
	return timeout
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
