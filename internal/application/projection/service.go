package projection

import (
	"context"
	"errors"
	"time"

	"agrofund-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("User not found")

// Service loads a user's committed holdings and runs the pure projection
// engine over them. Read-only; safe to run concurrently across users.
type Service struct {
	DB *gorm.DB
}

// SeriesResult is the dashboard payload for one selected range.
type SeriesResult struct {
	Points        []Point `json:"points"`
	GrowthPercent float64 `json:"growth_percent"`
}

// Load reads the user's holdings joined with the project figures valuation
// needs. Holdings referencing a missing project are skipped rather than
// failing the whole series.
func (s *Service) Load(ctx context.Context, userID uuid.UUID) ([]ProjectedHolding, error) {
	if userID == uuid.Nil {
		return nil, ErrUserNotFound
	}

	var user domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var holdings []domain.Holding
	if err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchase_date ASC").
		Find(&holdings).Error; err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, nil
	}

	projectIDs := make([]uuid.UUID, 0, len(holdings))
	seen := make(map[uuid.UUID]bool, len(holdings))
	for _, h := range holdings {
		if !seen[h.ProjectID] {
			seen[h.ProjectID] = true
			projectIDs = append(projectIDs, h.ProjectID)
		}
	}
	var projects []domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id IN ?", projectIDs).Find(&projects).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]domain.Project, len(projects))
	for _, p := range projects {
		byID[p.ProjectID] = p
	}

	out := make([]ProjectedHolding, 0, len(holdings))
	for _, h := range holdings {
		p, ok := byID[h.ProjectID]
		if !ok {
			continue
		}
		out = append(out, ProjectedHolding{
			HoldingID:              h.HoldingID,
			StocksPurchased:        h.StocksPurchased,
			PurchaseDate:           h.PurchaseDate,
			BonusPercentageApplied: h.BonusPercentageApplied,
			StockPrice:             p.StockPrice,
			StockProfitPerUnit:     p.StockProfitPerUnit,
			ProfitCollectDate:      p.ProfitCollectDate,
		})
	}
	return out, nil
}

// ProjectSeries renders the projected value series for [from, to], reduced to
// at most maxPoints display points (0 = no bound).
func (s *Service) ProjectSeries(ctx context.Context, userID uuid.UUID, from, to time.Time, maxPoints int) (*SeriesResult, error) {
	holdings, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	points := Downsample(Series(holdings, from, to), maxPoints)
	return &SeriesResult{
		Points:        points,
		GrowthPercent: GrowthPercent(points),
	}, nil
}

// RangePresets returns the chart ranges available to this user as of asOf.
// With no holdings yet, only the degenerate single-day full span is offered.
func (s *Service) RangePresets(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]RangePreset, error) {
	holdings, err := s.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	earliest := asOf
	for _, h := range holdings {
		if h.PurchaseDate.Before(earliest) {
			earliest = h.PurchaseDate
		}
	}
	return Presets(earliest, asOf), nil
}
