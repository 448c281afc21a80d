package firestore

import (
	"context"
	"errors"
	"sort"
	"time"

	domain "github.com/campusdocs/api/internal/domain"
	pfirestore "github.com/campusdocs/api/internal/platform/firestore"
)

const (
	settingsCollection  = "settings"
	scheduleSettingsDoc = "schedule"
	holidaysCollection  = "holidays"
)

type scheduleSettingsDocument struct {
	MaxOrdersPerDate int `firestore:"maxOrdersPerDate"`
	MinLeadDays      int `firestore:"minLeadDays"`
}

type holidayDocument struct {
	Date time.Time `firestore:"date"`
	Name string    `firestore:"name"`
}

// ScheduleRepository reads booking configuration and the holiday calendar.
type ScheduleRepository struct {
	settings *pfirestore.Collection[scheduleSettingsDocument]
	holidays *pfirestore.Collection[holidayDocument]
}

// NewScheduleRepository constructs a Firestore-backed schedule repository.
func NewScheduleRepository(provider *pfirestore.Provider) (*ScheduleRepository, error) {
	if provider == nil {
		return nil, errors.New("schedule repository requires firestore provider")
	}
	return &ScheduleRepository{
		settings: pfirestore.NewCollection[scheduleSettingsDocument](provider, settingsCollection, nil),
		holidays: pfirestore.NewCollection[holidayDocument](provider, holidaysCollection, nil),
	}, nil
}

// Config loads schedule settings. A missing settings document falls back to
// the domain defaults so a fresh install books conservatively.
func (r *ScheduleRepository) Config(ctx context.Context) (domain.ScheduleConfig, error) {
	defaults := domain.ScheduleConfig{
		MaxOrdersPerDate: domain.DefaultScheduleCapacity,
		MinLeadDays:      domain.DefaultLeadDays,
	}

	doc, err := r.settings.Get(ctx, scheduleSettingsDoc)
	if err != nil {
		var repoErr *pfirestore.Error
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return defaults, nil
		}
		return domain.ScheduleConfig{}, err
	}

	cfg := domain.ScheduleConfig{
		MaxOrdersPerDate: doc.Data.MaxOrdersPerDate,
		MinLeadDays:      doc.Data.MinLeadDays,
	}
	if cfg.MaxOrdersPerDate <= 0 {
		cfg.MaxOrdersPerDate = defaults.MaxOrdersPerDate
	}
	if cfg.MinLeadDays <= 0 {
		cfg.MinLeadDays = defaults.MinLeadDays
	}
	return cfg, nil
}

// Holidays returns the blocked calendar dates sorted ascending.
func (r *ScheduleRepository) Holidays(ctx context.Context) ([]domain.Holiday, error) {
	docs, err := r.holidays.Query(ctx, nil)
	if err != nil {
		return nil, err
	}

	holidays := make([]domain.Holiday, 0, len(docs))
	for _, doc := range docs {
		holidays = append(holidays, domain.Holiday{
			Date: domain.DateOnly(doc.Data.Date),
			Name: doc.Data.Name,
		})
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays, nil
}
