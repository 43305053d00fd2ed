package lms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nlasala/campus-meet-cli/internal/domain"
	"github.com/nlasala/campus-meet-cli/internal/ports"
)

const (
	// DefaultService is the web-service shortname the mobile contract
	// expects on token exchange.
	DefaultService = "moodle_mobile_app"

	tokenPath      = "/login/token.php"
	webservicePath = "/webservice/rest/server.php"
	restFormat     = "json"

	wsFuncSiteInfo       = "core_webservice_get_site_info"
	wsFuncUserCourses    = "core_enrol_get_users_courses"
	wsFuncCourseContents = "core_course_get_contents"

	// Module type tag the LMS assigns to conferencing activities.
	conferencingModule = "zoom"

	maxResponseBytes = 1 << 20
)

// Client is a stateless REST wrapper over the LMS web-service API. The
// credentials travel as query/form parameters exactly as the backend
// contract requires; no client-side hashing.
type Client struct {
	BaseURL        string
	Service        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.LMSGateway = (*Client)(nil)

type tokenResponse struct {
	Token        string `json:"token"`
	PrivateToken string `json:"privatetoken"`
	Error        string `json:"error"`
	ErrorCode    string `json:"errorcode"`
}

type siteInfoResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userid"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
}

type courseResponse struct {
	ID        int64  `json:"id"`
	FullName  string `json:"fullname"`
	ShortName string `json:"shortname"`
}

type sectionResponse struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name"`
	Modules []moduleResponse `json:"modules"`
}

type moduleResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ModName string `json:"modname"`
	URL     string `json:"url"`
}

// The webservice reports failures in 200 bodies: token.php with an "error"
// field, server.php with an "exception" object.
type wsErrorResponse struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

func (e wsErrorResponse) reason() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	case e.ErrorCode != "":
		return e.ErrorCode
	default:
		return e.Exception
	}
}

func (e wsErrorResponse) isError() bool {
	return e.Exception != "" || e.ErrorCode != "" || e.Error != ""
}

func (c *Client) ExchangeToken(ctx context.Context, username, password string) (domain.TokenGrant, error) {
	const op = "exchange token"

	endpoint, err := c.buildURL(tokenPath)
	if err != nil {
		return domain.TokenGrant{}, err
	}

	values := url.Values{}
	values.Set("username", username)
	values.Set("password", password)
	values.Set("service", c.service())

	body, err := c.get(ctx, op, endpoint+"?"+values.Encode())
	if err != nil {
		return domain.TokenGrant{}, err
	}

	var payload tokenResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.TokenGrant{}, &domain.AuthError{Op: op, Reason: "malformed token response"}
	}
	if payload.Error != "" {
		reason := payload.Error
		if payload.ErrorCode != "" {
			reason = payload.ErrorCode + ": " + payload.Error
		}
		return domain.TokenGrant{}, &domain.AuthError{Op: op, Reason: reason}
	}
	if payload.Token == "" {
		return domain.TokenGrant{}, &domain.AuthError{Op: op, Reason: "response carried no token"}
	}

	return domain.TokenGrant{Token: payload.Token, PrivateToken: payload.PrivateToken}, nil
}

func (c *Client) FetchIdentity(ctx context.Context, token string) (domain.LMSIdentity, error) {
	const op = "fetch identity"

	body, err := c.callWebservice(ctx, op, token, wsFuncSiteInfo, nil)
	if err != nil {
		return domain.LMSIdentity{}, err
	}

	if wsErr := decodeWebserviceError(body); wsErr != nil {
		return domain.LMSIdentity{}, &domain.AuthError{Op: op, Reason: wsErr.reason()}
	}

	var payload siteInfoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.LMSIdentity{}, &domain.AuthError{Op: op, Reason: "malformed site info response"}
	}

	// Older site-info payloads expose the account id as "userid".
	id := payload.ID
	if id == 0 {
		id = payload.UserID
	}
	if id == 0 {
		return domain.LMSIdentity{}, &domain.AuthError{Op: op, Reason: "response carried no user id"}
	}

	return domain.LMSIdentity{
		ID:        strconv.FormatInt(id, 10),
		Username:  payload.Username,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
	}, nil
}

func (c *Client) ListCourses(ctx context.Context, token, userID string) ([]domain.Course, error) {
	const op = "list courses"

	params := url.Values{}
	params.Set("userid", userID)

	body, err := c.callWebservice(ctx, op, token, wsFuncUserCourses, params)
	if err != nil {
		return nil, err
	}

	if wsErr := decodeWebserviceError(body); wsErr != nil {
		return nil, &domain.AuthError{Op: op, Reason: wsErr.reason()}
	}

	var payload []courseResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &domain.AuthError{Op: op, Reason: "malformed course list response"}
	}

	// Backend order is preserved; no re-sorting.
	courses := make([]domain.Course, 0, len(payload))
	for _, course := range payload {
		courses = append(courses, domain.Course{
			ID:        course.ID,
			FullName:  course.FullName,
			ShortName: course.ShortName,
		})
	}

	return courses, nil
}

func (c *Client) ListCourseMeetings(ctx context.Context, token string, courseID int64) ([]domain.MeetingLink, error) {
	const op = "list course contents"

	params := url.Values{}
	params.Set("courseid", strconv.FormatInt(courseID, 10))

	body, err := c.callWebservice(ctx, op, token, wsFuncCourseContents, params)
	if err != nil {
		return nil, err
	}

	if wsErr := decodeWebserviceError(body); wsErr != nil {
		return nil, &domain.AuthError{Op: op, Reason: wsErr.reason()}
	}

	var sections []sectionResponse
	if err := json.Unmarshal(body, &sections); err != nil {
		return nil, &domain.AuthError{Op: op, Reason: "malformed course contents response"}
	}

	// Zero matching modules is a course without meetings, not an error.
	meetings := make([]domain.MeetingLink, 0)
	for _, section := range sections {
		for _, module := range section.Modules {
			if module.ModName != conferencingModule {
				continue
			}
			meetings = append(meetings, domain.MeetingLink{
				ID:   module.ID,
				Name: module.Name,
				URL:  module.URL,
			})
		}
	}

	return meetings, nil
}

func (c *Client) callWebservice(ctx context.Context, op, token, wsFunction string, params url.Values) ([]byte, error) {
	endpoint, err := c.buildURL(webservicePath)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("wstoken", token)
	values.Set("wsfunction", wsFunction)
	values.Set("moodlewsrestformat", restFormat)
	for key, list := range params {
		for _, value := range list {
			values.Add(key, value)
		}
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return c.do(op, req)
}

func (c *Client) get(ctx context.Context, op, endpoint string) ([]byte, error) {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &domain.NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.NetworkError{Op: op, Err: err}
	}

	return body, nil
}

func decodeWebserviceError(body []byte) *wsErrorResponse {
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil
	}

	var wsErr wsErrorResponse
	if err := json.Unmarshal(trimmed, &wsErr); err != nil {
		return nil
	}
	if !wsErr.isError() {
		return nil
	}

	return &wsErr
}

func (c *Client) buildURL(path string) (string, error) {
	if c.BaseURL == "" {
		return "", &domain.ConfigError{Setting: "site_url"}
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse site url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("site url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("site url host is required")
	}

	endpoint, err := parsed.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}

	return endpoint.String(), nil
}

func (c *Client) service() string {
	if c.Service != "" {
		return c.Service
	}
	return DefaultService
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}
