package purchases

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	codesvc "agrofund-backend/internal/application/codes"
	purchsvc "agrofund-backend/internal/application/purchases"
	"agrofund-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupPurchasesTest(t *testing.T) (*Handlers, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Project{},
		&domain.Holding{}, &domain.PurchaseEvent{},
	))
	h := &Handlers{
		Service: &purchsvc.Service{DB: db},
		Codes:   &codesvc.Service{DB: db},
	}
	return h, db
}

func newTestApp(h *Handlers, userID string) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user", map[string]interface{}{"user_id": userID})
		}
		return c.Next()
	})
	app.Post("/validate-code", h.ValidateCode)
	app.Post("/buy-stocks", h.BuyStocks)
	return app
}

func seedBuyer(t *testing.T, db *gorm.DB, limit int) domain.User {
	user := domain.User{
		Fullname:   "Handler Buyer",
		Email:      uuid.New().String() + "@example.com",
		StockLimit: limit,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProjectWithCode(t *testing.T, db *gorm.DB, available int, code string, pct float64) domain.Project {
	project := domain.Project{
		Name:                "Coffee Grove",
		TotalStocks:         available,
		AvailableStocks:     available,
		StockPrice:          10,
		StockProfitPerUnit:  2,
		InvestmentCloseDate: time.Now().AddDate(0, 1, 0),
		ProfitCollectDate:   time.Now().AddDate(0, 0, 100),
	}
	if code != "" {
		project.BonusCode = &code
		project.BonusPercentage = &pct
	}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]interface{}) (*fiber.App, int, map[string]interface{}) {
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	var parsed map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return app, resp.StatusCode, parsed
}

func TestValidateCode_MissingFields(t *testing.T) {
	h, _ := setupPurchasesTest(t)
	app := newTestApp(h, uuid.New().String())

	_, status, _ := postJSON(t, app, "/validate-code", map[string]interface{}{})
	assert.Equal(t, 400, status)
}

func TestValidateCode_ReturnsPercentage(t *testing.T) {
	h, db := setupPurchasesTest(t)
	project := seedProjectWithCode(t, db, 100, "PROMO10", 10)
	app := newTestApp(h, uuid.New().String())

	_, status, body := postJSON(t, app, "/validate-code", map[string]interface{}{
		"project_id": project.ProjectID.String(),
		"code":       "PROMO10",
	})
	assert.Equal(t, 200, status)
	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, 10.0, data["percentage"])
}

func TestValidateCode_WrongCode(t *testing.T) {
	h, db := setupPurchasesTest(t)
	project := seedProjectWithCode(t, db, 100, "PROMO10", 10)
	app := newTestApp(h, uuid.New().String())

	_, status, _ := postJSON(t, app, "/validate-code", map[string]interface{}{
		"project_id": project.ProjectID.String(),
		"code":       "NOPE",
	})
	assert.Equal(t, 400, status)
}

func TestBuyStocks_Unauthorized(t *testing.T) {
	h, db := setupPurchasesTest(t)
	project := seedProjectWithCode(t, db, 100, "", 0)
	app := newTestApp(h, "")

	_, status, _ := postJSON(t, app, "/buy-stocks", map[string]interface{}{
		"project_id": project.ProjectID.String(),
		"stocks":     5,
	})
	assert.Equal(t, 401, status)
}

func TestBuyStocks_MissingFields(t *testing.T) {
	h, db := setupPurchasesTest(t)
	user := seedBuyer(t, db, 50)
	app := newTestApp(h, user.UserID.String())

	_, status, _ := postJSON(t, app, "/buy-stocks", map[string]interface{}{})
	assert.Equal(t, 400, status)
}

func TestBuyStocks_Success(t *testing.T) {
	h, db := setupPurchasesTest(t)
	user := seedBuyer(t, db, 50)
	project := seedProjectWithCode(t, db, 100, "", 0)
	app := newTestApp(h, user.UserID.String())

	_, status, body := postJSON(t, app, "/buy-stocks", map[string]interface{}{
		"project_id": project.ProjectID.String(),
		"stocks":     5,
	})
	require.Equal(t, 201, status)
	assert.Equal(t, "success", body["status"])

	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, 50.0, data["total_payment"])
	assert.Equal(t, 60.0, data["total_return"])

	var after domain.Project
	require.NoError(t, db.Where("project_id = ?", project.ProjectID).First(&after).Error)
	assert.Equal(t, 95, after.AvailableStocks)
}

func TestBuyStocks_InvalidCodeFailsBeforePurchase(t *testing.T) {
	h, db := setupPurchasesTest(t)
	user := seedBuyer(t, db, 50)
	project := seedProjectWithCode(t, db, 100, "PROMO10", 10)
	app := newTestApp(h, user.UserID.String())

	_, status, _ := postJSON(t, app, "/buy-stocks", map[string]interface{}{
		"project_id": project.ProjectID.String(),
		"stocks":     5,
		"bonus_code": "WRONG",
	})
	assert.Equal(t, 400, status)

	var after domain.Project
	require.NoError(t, db.Where("project_id = ?", project.ProjectID).First(&after).Error)
	assert.Equal(t, 100, after.AvailableStocks)
}

func TestBuyStocks_InsufficientStockMessage(t *testing.T) {
	h, db := setupPurchasesTest(t)
	user := seedBuyer(t, db, 50)
	project := seedProjectWithCode(t, db, 3, "", 0)
	app := newTestApp(h, user.UserID.String())

	_, status, body := postJSON(t, app, "/buy-stocks", map[string]interface{}{
		"project_id": project.ProjectID.String(),
		"stocks":     5,
	})
	assert.Equal(t, 409, status)
	errObj, _ := body["error"].(map[string]interface{})
	assert.Equal(t, "Only 3 stocks remain for this project", errObj["message"])
}

// A bonus code is a reusable multiplier: two different buyers apply the same
// code and both holdings snapshot the same percentage.
func TestBuyStocks_CodeReusableAcrossBuyers(t *testing.T) {
	h, db := setupPurchasesTest(t)
	userA := seedBuyer(t, db, 50)
	userB := seedBuyer(t, db, 50)
	project := seedProjectWithCode(t, db, 100, "PROMO10", 10)

	for _, u := range []domain.User{userA, userB} {
		app := newTestApp(h, u.UserID.String())
		_, status, _ := postJSON(t, app, "/buy-stocks", map[string]interface{}{
			"project_id": project.ProjectID.String(),
			"stocks":     5,
			"bonus_code": "PROMO10",
		})
		require.Equal(t, 201, status)
	}

	var holdings []domain.Holding
	require.NoError(t, db.Where("project_id = ?", project.ProjectID).Find(&holdings).Error)
	require.Len(t, holdings, 2)
	for _, holding := range holdings {
		assert.Equal(t, 10.0, holding.BonusPercentageApplied)
	}
}
