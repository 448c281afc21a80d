package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
	"github.com/campusdocs/api/internal/repositories"
)

// ScheduleServiceDeps bundles collaborators required to construct the schedule service.
type ScheduleServiceDeps struct {
	Orders   repositories.OrderRepository
	Schedule repositories.ScheduleRepository
}

type scheduleService struct {
	orders   repositories.OrderRepository
	schedule repositories.ScheduleRepository
}

// NewScheduleService wires dependencies into a concrete ScheduleService implementation.
func NewScheduleService(deps ScheduleServiceDeps) (ScheduleService, error) {
	if deps.Orders == nil {
		return nil, errors.New("schedule service: order repository is required")
	}
	if deps.Schedule == nil {
		return nil, errors.New("schedule service: schedule repository is required")
	}
	return &scheduleService{
		orders:   deps.Orders,
		schedule: deps.Schedule,
	}, nil
}

func (s *scheduleService) Check(ctx context.Context, date time.Time) (DateAvailability, error) {
	day := domain.DateOnly(date)

	cfg, err := s.schedule.Config(ctx)
	if err != nil {
		return DateAvailability{}, err
	}
	holidays, err := s.schedule.Holidays(ctx)
	if err != nil {
		return DateAvailability{}, err
	}

	count, err := s.orders.CountForDate(ctx, day)
	if err != nil {
		return DateAvailability{}, err
	}

	return DateAvailability{
		Date: day,
		Occupancy: domain.Occupancy{
			Date:     day,
			Count:    count,
			Capacity: cfg.MaxOrdersPerDate,
		},
		BlockedReason: domain.DateBlockReason(day, holidays),
	}, nil
}
