package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"FinDash/internal/domain/models"
	"FinDash/internal/gate"
	"FinDash/internal/usecase"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded /static assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageConfig holds page defaults.
type PageConfig struct {
	Title         string
	DefaultWidth  int
	DefaultHeight int
}

// PagesHandler renders the HTML pages.
type PagesHandler struct {
	logger   *xlogger.Logger
	cfg      PageConfig
	candles  *usecase.CandlesUseCase
	renderer *usecase.ChartRenderer
	pages    map[string]*template.Template
}

func NewPagesHandler(logger *xlogger.Logger, cfg PageConfig, candles *usecase.CandlesUseCase, renderer *usecase.ChartRenderer) (*PagesHandler, error) {
	if cfg.Title == "" {
		cfg.Title = "FinDash"
	}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"index", "auth", "recover", "reset", "charts"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return &PagesHandler{logger: logger, cfg: cfg, candles: candles, renderer: renderer, pages: pages}, nil
}

func (h *PagesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET(gate.LoginPath, h.Auth)
	e.GET(RecoverPath, h.Recover)
	e.GET(usecase.PasswordResetPath, h.Reset)
	e.GET(gate.HomePath, h.Charts)
}

type page struct {
	Title string
	User  *models.User
}

func (h *PagesHandler) Index(c echo.Context) error {
	return h.render(c, "index", page{Title: h.cfg.Title, User: gate.UserFrom(c)})
}

type authPage struct {
	page
	RedirectTo string
}

func (h *PagesHandler) Auth(c echo.Context) error {
	return h.render(c, "auth", authPage{
		page:       page{Title: "Sign in · " + h.cfg.Title},
		RedirectTo: localPath(c.QueryParam(gate.RedirectParam)),
	})
}

// RecoverPath is the page that requests a password reset link.
const RecoverPath = gate.LoginPath + "/forgot-password"

func (h *PagesHandler) Recover(c echo.Context) error {
	return h.render(c, "recover", page{Title: "Reset password · " + h.cfg.Title})
}

// Reset is where reset links land. The link's access token travels in the URL
// fragment and is read by the page script.
func (h *PagesHandler) Reset(c echo.Context) error {
	return h.render(c, "reset", page{Title: "Choose a new password · " + h.cfg.Title})
}

// localPath keeps same-origin absolute paths and maps anything else to HomePath.
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return gate.HomePath
	}
	if gate.Classify(p).Auth {
		return gate.HomePath
	}
	return p
}

type chartsPage struct {
	page
	Symbol string
	Count  int
	Chart  template.HTML
	Error  string
	Width  int
	Height int
}

func (h *PagesHandler) Charts(c echo.Context) error {
	req := &models.ChartPageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.ValidationResponse(c, verr)
	}
	width, height := req.Width, req.Height
	if width == 0 {
		width = h.cfg.DefaultWidth
	}
	if height == 0 {
		height = h.cfg.DefaultHeight
	}

	ctx := c.Request().Context()
	data := chartsPage{page: page{Title: "Charts · " + h.cfg.Title, User: gate.UserFrom(c)}}

	series, err := h.candles.GetCandles(ctx, usecase.GetCandlesParams{Symbol: req.Symbol})
	if err != nil {
		h.logger.Error("chart data unavailable", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		data.Error = "Failed to load chart: data unavailable"
		return h.render(c, "charts", data)
	}
	data.Symbol, data.Count = series.Symbol, series.Count

	out, err := h.renderer.Render(ctx, series.Candles, width, height)
	if err != nil {
		h.logger.Error("chart render failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("Failed to render chart").WithError(err))
	}
	if out.Error != "" {
		data.Error = out.Error
	} else {
		// svg attributes and text are escaped by the renderer
		data.Chart = template.HTML(out.SVG)
		data.Width, data.Height = out.Width, out.Height
	}
	return h.render(c, "charts", data)
}

func (h *PagesHandler) render(c echo.Context, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("template execution failed", xlogger.String("page", name), xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
