package usecase

import (
	"context"
	"fmt"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/ports"
)

// MaintenanceUseCase covers operational housekeeping verbs.
type MaintenanceUseCase struct {
	cache ports.ExtractionCache
}

func NewMaintenanceUseCase(cache ports.ExtractionCache) *MaintenanceUseCase {
	return &MaintenanceUseCase{cache: cache}
}

// ClearExtractionCache drops every persisted extraction result and
// reports how many entries were removed. The next run of each document
// pays the model call again.
func (uc *MaintenanceUseCase) ClearExtractionCache(ctx context.Context) (int, error) {
	count, err := uc.cache.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear extraction cache: %w", err)
	}
	return count, nil
}
