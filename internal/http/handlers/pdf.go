package handlers

import (
	"context"
	"fmt"
	neturl "net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"docrender/internal/config"
	"docrender/internal/infra/cache"
	"docrender/internal/infra/logging"
	"docrender/internal/render"
)

const (
	minHTMLBytes = 10
	maxMargin    = 2.0 // inches
	maxTimeoutMS = 120000
)

var filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+\.pdf$`)

// PDFRenderer is the render pipeline the handlers drive.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string, cfg render.RenderConfig, timeout time.Duration) (render.Result, error)
	RenderURL(ctx context.Context, url string, cfg render.RenderConfig, timeout time.Duration) (render.Result, error)
}

// PDFRequestParams holds validated input parameters.
type PDFRequestParams struct {
	HTML     string
	URL      string
	Config   render.RenderConfig
	Timeout  time.Duration
	Filename string
}

func (p *PDFRequestParams) source() string {
	if p.URL != "" {
		return p.URL
	}
	return p.HTML
}

// PDFService bundles configuration and dependencies for PDF rendering.
type PDFService struct {
	Config   config.Config
	Renderer PDFRenderer
	Cache    *cache.PDFCache
}

// NewPDFService creates a PDFService. A nil cache disables caching.
func NewPDFService(cfg config.Config, r PDFRenderer, c *cache.PDFCache) *PDFService {
	return &PDFService{Config: cfg, Renderer: r, Cache: c}
}

// HandleConversion renders the posted HTML or serves a cached copy.
func (svc *PDFService) HandleConversion(c *fiber.Ctx) error {
	params, err := validateAndExtractPDFParams(c, svc.Config)
	if err != nil {
		return err
	}
	return svc.processPDFGeneration(c, params)
}

// HandleURLConversion renders the page at the url query parameter.
func (svc *PDFService) HandleURLConversion(c *fiber.Ctx) error {
	params, err := validateAndExtractURLParams(c, svc.Config)
	if err != nil {
		return err
	}
	return svc.processPDFGeneration(c, params)
}

func (svc *PDFService) processPDFGeneration(c *fiber.Ctx, params *PDFRequestParams) error {
	var cacheKey string
	if svc.Cache != nil {
		cacheKey = cache.Key(params.source(), params.Config)
		if cached := svc.Cache.Get(c.UserContext(), cacheKey); cached != nil {
			return sendPDF(c, params.Filename, cached)
		}
	}

	var (
		res render.Result
		err error
	)
	if params.URL != "" {
		res, err = svc.Renderer.RenderURL(c.UserContext(), params.URL, params.Config, params.Timeout)
	} else {
		res, err = svc.Renderer.RenderHTML(c.UserContext(), params.HTML, params.Config, params.Timeout)
	}
	if err != nil {
		return renderFailure(c, err)
	}

	if res.SizeBytes > svc.Config.Limits.MaxPDFBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "PDF exceeds allowed size")
	}

	if svc.Cache != nil {
		svc.Cache.Set(c.UserContext(), cacheKey, res.Bytes)
	}

	logging.Info("PDF generated", "filename", params.Filename, "size_bytes", res.SizeBytes, "request_id", requestID(c))
	return sendPDF(c, params.Filename, res.Bytes)
}

func sendPDF(c *fiber.Ctx, filename string, data []byte) error {
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Send(data)
}

// renderFailure maps render errors to a status and a generic message. Engine
// details only reach the log.
func renderFailure(c *fiber.Ctx, err error) error {
	kind := render.KindOf(err)
	logging.Error("PDF generation failed", "kind", string(kind), "path", c.Path(), "request_id", requestID(c), "error", err)

	code := fiber.StatusInternalServerError
	switch kind {
	case render.KindLaunch:
		code = fiber.StatusServiceUnavailable
	case render.KindTimeout:
		code = fiber.StatusRequestTimeout
	}
	return fiber.NewError(code, "Could not generate document")
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}

// validateAndExtractPDFParams validates the form fields of a POST request.
func validateAndExtractPDFParams(c *fiber.Ctx, cfg config.Config) (*PDFRequestParams, error) {
	html := c.FormValue("html")
	if len(html) < minHTMLBytes {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid HTML: content too short or missing")
	}
	if len(html) > cfg.Limits.MaxHTMLBytes {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("HTML input exceeds %d bytes", cfg.Limits.MaxHTMLBytes))
	}

	params, err := layoutParams(c.FormValue, cfg)
	if err != nil {
		return nil, err
	}
	params.HTML = html
	return params, nil
}

// validateAndExtractURLParams validates the query of a GET request.
func validateAndExtractURLParams(c *fiber.Ctx, cfg config.Config) (*PDFRequestParams, error) {
	urlStr := c.Query("url")
	if urlStr == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid URL: missing")
	}
	parsed, err := neturl.ParseRequestURI(urlStr)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid URL: must be HTTP or HTTPS")
	}

	params, err := layoutParams(c.Query, cfg)
	if err != nil {
		return nil, err
	}
	params.URL = urlStr
	return params, nil
}

// layoutParams reads the options shared by both entry points over the
// configured document defaults.
func layoutParams(get func(key string, def ...string) string, cfg config.Config) (*PDFRequestParams, error) {
	doc := cfg.Render.Document()

	if v := get("format"); v != "" {
		f, err := render.ParseFormat(v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid format: must be A4, A3 or Letter")
		}
		doc.Format = f
	}

	if v := get("orientation"); v != "" {
		o, err := render.ParseOrientation(v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid orientation: must be 'portrait' or 'landscape'")
		}
		doc.Orientation = o
	}

	if v := get("margin"); v != "" {
		inches, err := render.ParseDistance(v)
		if err != nil || inches > maxMargin {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid margin: must be a distance between 0 and 2in")
		}
		doc.Margins = render.UniformMargins(v)
	}

	if v := get("print_background"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid print_background: must be a boolean")
		}
		doc.PrintBackground = b
	}

	if v := get("prefer_css_page_size"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid prefer_css_page_size: must be a boolean")
		}
		doc.PreferCSSPageSize = b
	}

	timeout := cfg.Render.Timeout()
	if v := get("timeout_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 || ms > maxTimeoutMS {
			return nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Invalid timeout_ms: must be between 1 and %d", maxTimeoutMS))
		}
		timeout = time.Duration(ms) * time.Millisecond
	}

	filename := get("filename")
	if filename == "" {
		filename = "output.pdf"
	} else if !filenamePattern.MatchString(filename) {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid filename: must match [a-zA-Z0-9_.-] and end with .pdf")
	}

	return &PDFRequestParams{
		Config:   doc,
		Timeout:  timeout,
		Filename: filename,
	}, nil
}
