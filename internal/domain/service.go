package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DurationDisplay string

const (
	// DurationDisplayFixed means clients may render an automatic duration tag
	// computed from DurationMinutes.
	DurationDisplayFixed DurationDisplay = "fixed"
	// DurationDisplayRangeText means the service name already spells out a
	// variable duration (e.g. "Luzes (2h a 4h)") and no automatic tag should
	// be rendered. DurationMinutes is still authoritative for slot math.
	DurationDisplayRangeText DurationDisplay = "range_text"
)

func (d DurationDisplay) Valid() bool {
	return d == DurationDisplayFixed || d == DurationDisplayRangeText
}

type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID              uuid.UUID       `bun:"id,pk,type:uuid"`
	Name            string          `bun:"name,notnull"`
	PriceCents      int64           `bun:"price_cents,notnull"`
	DurationMinutes int             `bun:"duration_minutes,notnull"`
	DurationDisplay DurationDisplay `bun:"duration_display,notnull"`
	Active          bool            `bun:"active,notnull"`
	CreatedAt       time.Time       `bun:"created_at,notnull"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull"`
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if s.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			s.ID = id
		}
		if s.DurationDisplay == "" {
			s.DurationDisplay = DurationDisplayFixed
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		s.UpdatedAt = now
	}
	return nil
}
