package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"FinDash/internal/domain/models"
	xhttp "FinDash/pkg/http"
	"FinDash/pkg/util"

	"github.com/tidwall/gjson"
)

const (
	authPath     = "/auth/v1"
	restPath     = "/rest/v1"
	profileTable = "profiles"
)

// Config holds identity backend coordinates.
type Config struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
}

// Client talks to the GoTrue auth API and the PostgREST profile table.
type Client struct {
	http *xhttp.Client
	cfg  Config
}

func NewClient(cfg Config, opts ...xhttp.ClientOption) *Client {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &Client{
		http: xhttp.NewClient(opts...),
		cfg:  cfg,
	}
}

// GetUser validates an access token and returns its owner.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*models.User, error) {
	var u models.User
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.cfg.URL + authPath + "/user",
		Headers: c.bearer(c.cfg.AnonKey, accessToken),
	}, &u)
	if err != nil {
		return nil, toAPIError("get user", err)
	}
	return &u, nil
}

// RefreshSession exchanges a refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.Tokens, error) {
	return c.grant(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Tokens, error) {
	return c.grant(ctx, "password", map[string]string{"email": email, "password": password})
}

func (c *Client) grant(ctx context.Context, grantType string, body interface{}) (*models.Tokens, error) {
	var t models.Tokens
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodPost,
		URL:         c.cfg.URL + authPath + "/token",
		Headers:     c.bearer(c.cfg.AnonKey, ""),
		QueryParams: map[string][]string{"grant_type": {grantType}},
		Body:        body,
	}, &t)
	if err != nil {
		return nil, toAPIError(grantType+" grant", err)
	}
	if t.AccessToken == "" {
		return nil, fmt.Errorf("%s grant: empty access token", grantType)
	}
	return &t, nil
}

// SignUp creates an account. The backend answers with either the bare user
// (email confirmation pending) or a session carrying the user; both are accepted.
// A nil user with a nil error means the backend created nothing.
func (c *Client) SignUp(ctx context.Context, email, password, fullName, redirectTo string) (*models.User, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]*string{"full_name": util.TrimmedPtr(fullName)},
	}
	opts := &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.cfg.URL + authPath + "/signup",
		Headers: c.bearer(c.cfg.AnonKey, ""),
		Body:    body,
	}
	if redirectTo != "" {
		opts.QueryParams = map[string][]string{"redirect_to": {redirectTo}}
	}

	var raw []byte
	if err := c.http.SendAndParse(ctx, opts, &raw); err != nil {
		return nil, toAPIError("sign up", err)
	}

	doc := gjson.ParseBytes(raw)
	userDoc := doc
	if u := doc.Get("user"); u.IsObject() {
		userDoc = u
	}
	if userDoc.Get("id").String() == "" {
		return nil, nil
	}
	return decodeUser(userDoc), nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.cfg.URL + authPath + "/logout",
		Headers: c.bearer(c.cfg.AnonKey, accessToken),
	}, nil)
	if err != nil {
		return toAPIError("sign out", err)
	}
	return nil
}

// Recover asks the backend to email a password reset link that lands on redirectTo.
func (c *Client) Recover(ctx context.Context, email, redirectTo string) error {
	opts := &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.cfg.URL + authPath + "/recover",
		Headers: c.bearer(c.cfg.AnonKey, ""),
		Body:    map[string]string{"email": email},
	}
	if redirectTo != "" {
		opts.QueryParams = map[string][]string{"redirect_to": {redirectTo}}
	}
	if err := c.http.SendAndParse(ctx, opts, nil); err != nil {
		return toAPIError("recover", err)
	}
	return nil
}

// UpdatePassword sets a new password for the owner of accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) (*models.User, error) {
	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPut,
		URL:     c.cfg.URL + authPath + "/user",
		Headers: c.bearer(c.cfg.AnonKey, accessToken),
		Body:    map[string]string{"password": password},
	}, &raw)
	if err != nil {
		return nil, toAPIError("update password", err)
	}
	return decodeUser(gjson.ParseBytes(raw)), nil
}

// InsertProfile writes a profile row with the service role key.
func (c *Client) InsertProfile(ctx context.Context, p *models.Profile) error {
	headers := c.bearer(c.serviceKey(), c.serviceKey())
	headers["Prefer"] = "return=minimal"

	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.cfg.URL + restPath + "/" + profileTable,
		Headers: headers,
		Body:    p,
	}, nil)
	if err != nil {
		return toAPIError("insert profile", err)
	}
	return nil
}

// GetProfile fetches one profile row; a missing row yields (nil, nil).
func (c *Client) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	headers := c.bearer(c.serviceKey(), c.serviceKey())
	headers["Accept"] = "application/vnd.pgrst.object+json"

	var p models.Profile
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     c.cfg.URL + restPath + "/" + profileTable,
		Headers: headers,
		QueryParams: map[string][]string{
			"id":     {"eq." + id},
			"select": {"*"},
		},
	}, &p)
	if err != nil {
		err = toAPIError("get profile", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusNotAcceptable || apiErr.Code == "PGRST116") {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile patches the caller's own row, authorized by their access token.
func (c *Client) UpdateProfile(ctx context.Context, accessToken, id string, patch models.ProfilePatch) error {
	headers := c.bearer(c.cfg.AnonKey, accessToken)
	headers["Prefer"] = "return=minimal"

	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodPatch,
		URL:         c.cfg.URL + restPath + "/" + profileTable,
		Headers:     headers,
		QueryParams: map[string][]string{"id": {"eq." + id}},
		Body:        patch,
	}, nil)
	if err != nil {
		return toAPIError("update profile", err)
	}
	return nil
}

func (c *Client) serviceKey() string {
	if c.cfg.ServiceRoleKey != "" {
		return c.cfg.ServiceRoleKey
	}
	return c.cfg.AnonKey
}

func (c *Client) bearer(apiKey, token string) map[string]string {
	h := map[string]string{"apikey": apiKey}
	if token != "" {
		h["Authorization"] = "Bearer " + token
	}
	return h
}

func decodeUser(doc gjson.Result) *models.User {
	u := &models.User{
		ID:    doc.Get("id").String(),
		Email: doc.Get("email").String(),
		UserMetadata: models.UserMetadata{
			FullName:  doc.Get("user_metadata.full_name").String(),
			AvatarURL: doc.Get("user_metadata.avatar_url").String(),
		},
	}
	if confirmed := doc.Get("email_confirmed_at"); confirmed.Exists() && confirmed.Type == gjson.String {
		if t := confirmed.Time(); !t.IsZero() {
			u.EmailConfirmedAt = &t
		}
	}
	return u
}
