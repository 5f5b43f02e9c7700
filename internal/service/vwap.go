package service

import (
	"context"

	"github.com/guttosm/itchpulse/internal/domain/models"
	"github.com/guttosm/itchpulse/internal/storage"
)

// VWAPService defines business logic for querying reconstructed VWAP series.
// It decouples HTTP handlers from the storage layer.
type VWAPService interface {
	GetVWAP(ctx context.Context, symbol string, fromHour, toHour *int) ([]models.VWAPSample, error)
}

type vwapService struct {
	repo storage.ReplayRepository
}

func NewVWAPService(repo storage.ReplayRepository) VWAPService {
	return &vwapService{repo: repo}
}

func (s *vwapService) GetVWAP(ctx context.Context, symbol string, fromHour, toHour *int) ([]models.VWAPSample, error) {
	// Caching or per-symbol memoization could slot in here later.
	return s.repo.GetVWAPBySymbol(symbol, fromHour, toHour)
}
