package portfolio

import (
	"errors"
	"strconv"
	"time"

	projsvc "agrofund-backend/internal/application/projection"
	"agrofund-backend/internal/middleware"
	"agrofund-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// defaultMaxPoints bounds the chart series when the caller does not ask for
// a specific number of display points.
const defaultMaxPoints = 90

type Handlers struct {
	Service *projsvc.Service
}

// Series GET /api/v1/portfolio/series?range=30d&points=90 — projected value
// series for the dashboard chart. Explicit from/to (2006-01-02) override the
// range preset.
func (h *Handlers) Series(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil || actor.UserID == "" {
		return response.Error(c, "Unauthorized", 401, nil)
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Error(c, "Unauthorized", 401, nil)
	}

	asOf := time.Now()
	presets, err := h.Service.RangePresets(c.Context(), userID, asOf)
	if err != nil {
		return h.seriesError(c, err)
	}
	selected := projsvc.PresetByKey(presets, c.Query("range"))

	from, to := selected.From, selected.To
	if s := c.Query("from"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return response.Error(c, "Invalid from date, expected YYYY-MM-DD", 400, nil)
		}
		from = parsed
	}
	if s := c.Query("to"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			return response.Error(c, "Invalid to date, expected YYYY-MM-DD", 400, nil)
		}
		to = parsed
	}

	maxPoints := defaultMaxPoints
	if s := c.Query("points"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return response.Error(c, "Invalid points, expected a positive integer", 400, nil)
		}
		maxPoints = n
	}

	result, err := h.Service.ProjectSeries(c.Context(), userID, from, to, maxPoints)
	if err != nil {
		return h.seriesError(c, err)
	}
	return response.Success(c, "Projection series", result, fiber.Map{
		"range": selected.Key,
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
	})
}

// Ranges GET /api/v1/portfolio/ranges — presets that fit the user's elapsed
// holding span.
func (h *Handlers) Ranges(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil || actor.UserID == "" {
		return response.Error(c, "Unauthorized", 401, nil)
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Error(c, "Unauthorized", 401, nil)
	}

	presets, err := h.Service.RangePresets(c.Context(), userID, time.Now())
	if err != nil {
		return h.seriesError(c, err)
	}
	return response.Success(c, "Available ranges", presets, nil)
}

func (h *Handlers) seriesError(c *fiber.Ctx, err error) error {
	if errors.Is(err, projsvc.ErrUserNotFound) {
		return response.Error(c, err.Error(), 404, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}

type portfolioActor struct {
	UserID string
}

func getActor(c *fiber.Ctx) *portfolioActor {
	u := middleware.GetUser(c)
	if u == nil {
		return nil
	}
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	userID, _ := m["user_id"].(string)
	return &portfolioActor{UserID: userID}
}
