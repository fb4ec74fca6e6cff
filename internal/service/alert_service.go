package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const recentAlertLimit = 20

// AlertService exposes monitoring signals to agents.
type AlertService struct {
	alerts repository.AlertRepository
}

// NewAlertService constructs the service.
func NewAlertService(alerts repository.AlertRepository) *AlertService {
	return &AlertService{alerts: alerts}
}

// Recent returns the latest alerts, newest first.
func (s *AlertService) Recent(ctx context.Context, actor domain.Actor) ([]domain.SystemAlert, error) {
	if !actor.Role.IsAgent() {
		return nil, apperrors.NewForbidden("system status is available to agents")
	}
	alerts, err := s.alerts.ListRecent(ctx, recentAlertLimit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return alerts, nil
}
