package purchases

import (
	"errors"
	"fmt"

	codesvc "agrofund-backend/internal/application/codes"
	purchsvc "agrofund-backend/internal/application/purchases"
	"agrofund-backend/internal/middleware"
	"agrofund-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *purchsvc.Service
	Codes   *codesvc.Service
}

// ValidateCode POST /api/v1/purchases/validate-code — resolves a bonus code
// before purchase so the buyer sees the percentage up front.
func (h *Handlers) ValidateCode(c *fiber.Ctx) error {
	var body struct {
		ProjectID string `json:"project_id"`
		Code      string `json:"code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.ProjectID == "" || body.Code == "" {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	projectID, err := uuid.Parse(body.ProjectID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for project_id", 400, nil)
	}

	result, err := h.Codes.Validate(c.Context(), projectID, body.Code)
	if err != nil {
		switch {
		case errors.Is(err, codesvc.ErrProjectNotFound):
			return response.Error(c, err.Error(), 404, nil)
		case errors.Is(err, codesvc.ErrInvalidCode):
			return response.Error(c, err.Error(), 400, nil)
		}
		return response.Error(c, "Internal Server Error", 500, nil)
	}
	return response.Success(c, "Bonus code valid", result, nil)
}

// BuyStocks POST /api/v1/purchases/buy-stocks — atomic purchase; optional
// bonus code is validated first and its percentage snapshotted.
func (h *Handlers) BuyStocks(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil || actor.UserID == "" {
		return response.Error(c, "Unauthorized", 401, nil)
	}
	userID, err := uuid.Parse(actor.UserID)
	if err != nil {
		return response.Error(c, "Unauthorized", 401, nil)
	}

	var body struct {
		ProjectID string `json:"project_id"`
		Stocks    int    `json:"stocks"`
		BonusCode string `json:"bonus_code"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	if body.ProjectID == "" || body.Stocks == 0 {
		return response.Error(c, "Missing required fields", 400, nil)
	}
	projectID, err := uuid.Parse(body.ProjectID)
	if err != nil {
		return response.Error(c, "Invalid UUID format for project_id", 400, nil)
	}

	bonusPct := 0.0
	if body.BonusCode != "" {
		result, err := h.Codes.Validate(c.Context(), projectID, body.BonusCode)
		if err != nil {
			switch {
			case errors.Is(err, codesvc.ErrProjectNotFound):
				return response.Error(c, err.Error(), 404, nil)
			case errors.Is(err, codesvc.ErrInvalidCode):
				return response.Error(c, err.Error(), 400, nil)
			}
			return response.Error(c, "Internal Server Error", 500, nil)
		}
		bonusPct = result.Percentage
	}

	receipt, err := h.Service.PurchaseWithRetry(c.Context(), userID, projectID, body.Stocks, bonusPct)
	if err != nil {
		return h.purchaseError(c, projectID, err)
	}
	return response.SuccessCreated(c, "Purchase successful", receipt, nil)
}

func (h *Handlers) purchaseError(c *fiber.Ctx, projectID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, purchsvc.ErrInvalidQuantity),
		errors.Is(err, purchsvc.ErrProjectClosed):
		return response.Error(c, err.Error(), 400, nil)
	case errors.Is(err, purchsvc.ErrProjectNotFound),
		errors.Is(err, purchsvc.ErrUserNotFound):
		return response.Error(c, err.Error(), 404, nil)
	case errors.Is(err, purchsvc.ErrInsufficientStock):
		msg := err.Error()
		if remaining, qerr := h.Service.AvailableStocks(c.Context(), projectID); qerr == nil {
			msg = fmt.Sprintf("Only %d stocks remain for this project", remaining)
		}
		return response.Error(c, msg, 409, nil)
	case errors.Is(err, purchsvc.ErrLimitExceeded):
		return response.Error(c, err.Error(), 409, nil)
	case errors.Is(err, purchsvc.ErrTransientConflict):
		return response.Error(c, "High demand right now, please try again shortly", 503, nil)
	}
	return response.Error(c, "Internal Server Error", 500, nil)
}

type purchaseActor struct {
	UserID string
}

func getActor(c *fiber.Ctx) *purchaseActor {
	u := middleware.GetUser(c)
	if u == nil {
		return nil
	}
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	userID, _ := m["user_id"].(string)
	return &purchaseActor{UserID: userID}
}
