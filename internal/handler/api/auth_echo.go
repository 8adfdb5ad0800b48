package api

import (
	"net/http"
	"strings"

	"FinDash/internal/domain/models"
	"FinDash/internal/gate"
	"FinDash/internal/identity"
	"FinDash/internal/usecase"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AuthEchoHandler serves the /api/auth endpoints.
type AuthEchoHandler struct {
	logger   *xlogger.Logger
	auth     *usecase.AuthUseCase
	sessions *identity.Sessions
	limit    echo.MiddlewareFunc
}

// NewAuthEchoHandler builds the handler. limit guards the credential
// endpoints and may be nil.
func NewAuthEchoHandler(logger *xlogger.Logger, auth *usecase.AuthUseCase, sessions *identity.Sessions, limit echo.MiddlewareFunc) *AuthEchoHandler {
	return &AuthEchoHandler{logger: logger, auth: auth, sessions: sessions, limit: limit}
}

func (h *AuthEchoHandler) RegisterRoutes(e *echo.Echo) {
	var guard []echo.MiddlewareFunc
	if h.limit != nil {
		guard = append(guard, h.limit)
	}

	g := e.Group("/api/auth")
	g.POST("/signup", h.Signup, guard...)
	g.POST("/signin", h.Signin, guard...)
	g.POST("/recover", h.Recover, guard...)
	g.PUT("/password", h.UpdatePassword, guard...)
	g.POST("/signout", h.Signout)
	g.GET("/me", h.Me)
	g.PATCH("/profile", h.UpdateProfile)
}

func (h *AuthEchoHandler) Signup(c echo.Context) error {
	req := &models.SignupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	res, err := h.auth.Signup(c.Request().Context(), req, requestOrigin(c))
	if err != nil {
		h.logger.Warn("signup failed", xlogger.String("email", req.Email), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, res)
}

func (h *AuthEchoHandler) Signin(c echo.Context) error {
	req := &models.SigninRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	acct, cookies, err := h.auth.Signin(c.Request().Context(), req)
	if err != nil {
		h.logger.Warn("signin failed", xlogger.String("email", req.Email), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	setCookies(c, cookies)
	return xhttp.SuccessResponse(c, acct)
}

func (h *AuthEchoHandler) Recover(c echo.Context) error {
	req := &models.RecoverRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	res, err := h.auth.Recover(c.Request().Context(), req, requestOrigin(c))
	if err != nil {
		h.logger.Warn("password recovery failed", xlogger.String("email", req.Email), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AuthEchoHandler) UpdatePassword(c echo.Context) error {
	req := &models.PasswordUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	user, err := h.auth.UpdatePassword(c.Request().Context(), h.sessions.AccessToken(c.Cookies()), req)
	if err != nil {
		h.logger.Warn("password update failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, user)
}

func (h *AuthEchoHandler) Signout(c echo.Context) error {
	cookies := h.auth.Signout(c.Request().Context(), gate.UserFrom(c), c.Cookies())
	setCookies(c, cookies)
	return xhttp.NoContentResponse(c)
}

func (h *AuthEchoHandler) Me(c echo.Context) error {
	acct, err := h.auth.Me(c.Request().Context(), gate.UserFrom(c))
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, acct)
}

func (h *AuthEchoHandler) UpdateProfile(c echo.Context) error {
	req := &models.ProfileUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}

	user := gate.UserFrom(c)
	profile, err := h.auth.UpdateProfile(c.Request().Context(), user, h.sessions.AccessToken(c.Cookies()), req)
	if err != nil {
		h.logger.Warn("profile update failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, profile)
}

func setCookies(c echo.Context, cookies []*http.Cookie) {
	for _, ck := range cookies {
		c.SetCookie(ck)
	}
}

// requestOrigin prefers the browser's Origin header and falls back to the
// scheme and host the request arrived on.
func requestOrigin(c echo.Context) string {
	if o := strings.TrimSpace(c.Request().Header.Get(echo.HeaderOrigin)); o != "" && o != "null" {
		return o
	}
	return c.Scheme() + "://" + c.Request().Host
}
