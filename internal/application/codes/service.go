package codes

import (
	"context"
	"errors"

	"agrofund-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrProjectNotFound: unknown project id.
	ErrProjectNotFound = errors.New("Project not found")
	// ErrInvalidCode: the project has no active code or the submitted code does not match.
	ErrInvalidCode = errors.New("Invalid bonus code")
)

// BonusResult is the resolved promotional percentage for a matching code.
type BonusResult struct {
	Percentage float64 `json:"percentage"`
}

// Service validates bonus percentage codes against a project's current code.
type Service struct {
	DB *gorm.DB
}

// Validate resolves submittedCode against the project's single active bonus
// code. Case-sensitive match. Pure read: a code is a promotional multiplier,
// not a single-use coupon — it stays valid for any number of buyers until an
// admin rotates or removes it.
func (s *Service) Validate(ctx context.Context, projectID uuid.UUID, submittedCode string) (*BonusResult, error) {
	if projectID == uuid.Nil {
		return nil, ErrProjectNotFound
	}

	var project domain.Project
	if err := s.DB.WithContext(ctx).Where("project_id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	if project.BonusCode == nil || *project.BonusCode != submittedCode {
		return nil, ErrInvalidCode
	}

	pct := 0.0
	if project.BonusPercentage != nil {
		pct = *project.BonusPercentage
	}
	return &BonusResult{Percentage: pct}, nil
}
