package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"trends-go/pkg/logger"
	"trends-go/pkg/trends"
)

// TrendsHandler is the HTTP boundary in front of the fetch core. It parses
// query parameters, delegates to validator and fetcher, and maps the closed
// error taxonomy to HTTP statuses. No rendering happens here; the response
// is structured JSON for the presentation layer to consume.
type TrendsHandler struct {
	validator *trends.Validator
	fetcher   *trends.Fetcher
	log       *logger.Logger
}

// NewTrendsHandler creates the handler around a validator and fetcher.
func NewTrendsHandler(validator *trends.Validator, fetcher *trends.Fetcher) *TrendsHandler {
	return &TrendsHandler{
		validator: validator,
		fetcher:   fetcher,
		log:       logger.GetLogger().WithField("component", "trends_handler"),
	}
}

// Register mounts the handler's routes on the app.
func (h *TrendsHandler) Register(app *fiber.App) {
	app.Get("/healthz", h.handleHealth)
	app.Get("/api/v1/trends", h.handleTrends)
}

func (h *TrendsHandler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// errorResponse is the JSON error body: a closed kind plus enough structured
// detail for the presentation layer to render a useful message.
type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
	Keyword  string `json:"keyword,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
}

func (h *TrendsHandler) handleTrends(c *fiber.Ctx) error {
	rawKeywords := strings.Split(c.Query("keywords"), ",")
	rawGeo := c.Query("geo")
	timeframeLabel := c.Query("timeframe", trends.Last12Months.String())

	req, err := h.validator.Validate(rawKeywords, rawGeo, timeframeLabel)
	if err != nil {
		return h.renderError(c, err)
	}

	series, err := h.fetcher.Fetch(c.Context(), req)
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(series)
}

func (h *TrendsHandler) renderError(c *fiber.Ctx, err error) error {
	if inputErr, ok := trends.AsInputError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "invalid request",
			Kind:    inputErr.Kind.String(),
			Detail:  inputErr.Detail,
			Keyword: inputErr.Keyword,
		})
	}

	if fetchErr, ok := trends.AsFetchError(err); ok {
		switch fetchErr.Kind {
		case trends.EmptyResult:
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{
				Error:  "no data",
				Kind:   fetchErr.Kind.String(),
				Detail: "no trend data for this keyword/geo/timeframe combination",
			})
		case trends.RetriesExhausted:
			c.Set(fiber.HeaderRetryAfter, "60")
			return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
				Error:    "rate limited upstream",
				Kind:     fetchErr.Kind.String(),
				Detail:   "the trend service is throttling requests, try again later",
				Attempts: fetchErr.Attempts,
			})
		case trends.RemoteAPIError:
			return c.Status(fiber.StatusBadGateway).JSON(errorResponse{
				Error:  "upstream error",
				Kind:   fetchErr.Kind.String(),
				Detail: fetchErr.Error(),
			})
		}
	}

	h.log.WithError(err).Error("Unhandled fetch failure")
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
		Error: "internal error",
		Kind:  trends.UnexpectedError.String(),
	})
}
