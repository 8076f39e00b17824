package purchases

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"agrofund-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultLockWait = 5 * time.Second

// maxTransientRetries bounds how often PurchaseWithRetry replays a request
// that hit a lock/timeout conflict before surfacing ErrTransientConflict.
const maxTransientRetries = 3

// Notifier receives the committed purchase event after the transaction.
// Dispatch is fire-and-forget: its failure never rolls back the purchase.
type Notifier interface {
	Dispatch(ctx context.Context, event domain.PurchaseEvent)
}

// Service executes atomic stock purchases against a project's finite pool.
type Service struct {
	DB       *gorm.DB
	Notifier Notifier      // nil = events stay in the outbox until flushed
	LockWait time.Duration // 0 = defaultLockWait
}

// Receipt carries the committed holding plus the derived figures the caller
// displays and the confirmation email repeats.
type Receipt struct {
	Holding      domain.Holding `json:"holding"`
	TotalPayment float64        `json:"total_payment"`
	BaseProfit   float64        `json:"base_profit"`
	BonusProfit  float64        `json:"bonus_profit"`
	TotalProfit  float64        `json:"total_profit"`
	TotalReturn  float64        `json:"total_return"`
}

// Purchase sells stocksRequested stocks of a project to a user in one atomic
// unit of work. Preconditions are checked in order inside the transaction:
// project open, quantity valid, supply sufficient, per-project user limit.
// The supply decrement is a conditional UPDATE guarded on available_stocks,
// so two concurrent purchases can never jointly oversell a project; purchases
// on different projects never block each other.
//
// bonusPercentage is the already-validated promotional percentage (0 when no
// code was applied); it is snapshotted onto the holding.
func (s *Service) Purchase(ctx context.Context, userID, projectID uuid.UUID, stocksRequested int, bonusPercentage float64) (*Receipt, error) {
	wait := s.LockWait
	if wait <= 0 {
		wait = defaultLockWait
	}
	txCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var receipt *Receipt
	var event domain.PurchaseEvent

	err := s.DB.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		var project domain.Project
		if err := tx.Where("project_id = ?", projectID).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if time.Now().After(project.InvestmentCloseDate) {
			return ErrProjectClosed
		}

		if stocksRequested < 1 {
			return ErrInvalidQuantity
		}

		if project.AvailableStocks < stocksRequested {
			return ErrInsufficientStock
		}

		var user domain.User
		if err := tx.Where("user_id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// The limit is checked per project against the user's global ceiling:
		// only stocks already held in this same project count against it.
		var alreadyHeld int64
		if err := tx.Model(&domain.Holding{}).
			Where("user_id = ? AND project_id = ?", userID, projectID).
			Select("COALESCE(SUM(stocks_purchased), 0)").
			Scan(&alreadyHeld).Error; err != nil {
			return err
		}
		if user.StockLimit-int(alreadyHeld) < stocksRequested {
			return ErrLimitExceeded
		}

		// Conditional decrement: the WHERE guard makes check-and-decrement a
		// single statement, so the database linearizes concurrent purchases
		// per project. RowsAffected 0 means someone else took the stocks
		// between our read and this write.
		res := tx.Model(&domain.Project{}).
			Where("project_id = ? AND available_stocks >= ?", projectID, stocksRequested).
			Update("available_stocks", gorm.Expr("available_stocks - ?", stocksRequested))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		holding := domain.Holding{
			UserID:                 userID,
			ProjectID:              projectID,
			StocksPurchased:        stocksRequested,
			PurchaseDate:           time.Now(),
			BonusPercentageApplied: bonusPercentage,
		}
		if err := tx.Create(&holding).Error; err != nil {
			return err
		}

		totalPayment := round2(float64(stocksRequested) * project.StockPrice)
		baseProfit := round2(float64(stocksRequested) * project.StockProfitPerUnit)
		bonusProfit := round2(baseProfit * bonusPercentage / 100)
		totalProfit := round2(baseProfit + bonusProfit)
		totalReturn := round2(totalPayment + totalProfit)

		payload, _ := json.Marshal(map[string]interface{}{
			"user_id":       userID,
			"project_id":    projectID,
			"project_name":  project.Name,
			"stocks":        stocksRequested,
			"total_payment": totalPayment,
			"total_profit":  totalProfit,
			"total_return":  totalReturn,
			"timestamp":     holding.PurchaseDate,
		})
		event = domain.PurchaseEvent{
			UserID:       userID,
			ProjectID:    projectID,
			Stocks:       stocksRequested,
			TotalPayment: totalPayment,
			TotalProfit:  totalProfit,
			TotalReturn:  totalReturn,
			Payload:      datatypes.JSON(payload),
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		receipt = &Receipt{
			Holding:      holding,
			TotalPayment: totalPayment,
			BaseProfit:   baseProfit,
			BonusProfit:  bonusProfit,
			TotalProfit:  totalProfit,
			TotalReturn:  totalReturn,
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	// After commit only. Fire-and-forget: a purchase that commits but fails
	// to notify is still a valid purchase; the outbox row is flushed later.
	if s.Notifier != nil {
		go s.Notifier.Dispatch(context.Background(), event)
	}

	return receipt, nil
}

// PurchaseWithRetry replays the same request through bounded transient
// conflicts (lock waits, timeouts) so callers see them transparently.
func (s *Service) PurchaseWithRetry(ctx context.Context, userID, projectID uuid.UUID, stocksRequested int, bonusPercentage float64) (*Receipt, error) {
	var lastErr error
	for attempt := 0; attempt <= maxTransientRetries; attempt++ {
		receipt, err := s.Purchase(ctx, userID, projectID, stocksRequested, bonusPercentage)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ErrTransientConflict) {
			return nil, err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ErrTransientConflict
		case <-time.After(time.Duration(attempt+1) * 25 * time.Millisecond):
		}
	}
	return nil, lastErr
}

// AvailableStocks reads a project's current supply, for "only N stocks
// remain" messages after a conflict.
func (s *Service) AvailableStocks(ctx context.Context, projectID uuid.UUID) (int, error) {
	var project domain.Project
	if err := s.DB.WithContext(ctx).Select("available_stocks").Where("project_id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrProjectNotFound
		}
		return 0, err
	}
	return project.AvailableStocks, nil
}

var sentinels = []error{
	ErrProjectNotFound, ErrUserNotFound, ErrProjectClosed,
	ErrInvalidQuantity, ErrInsufficientStock, ErrLimitExceeded,
	ErrTransientConflict,
}

// classify maps driver-level lock/timeout failures to ErrTransientConflict
// and passes the purchase taxonomy through untouched.
func classify(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTransientConflict
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"lock", "busy", "deadlock", "serialization", "timeout"} {
		if strings.Contains(msg, hint) {
			return ErrTransientConflict
		}
	}
	return err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
