package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ShopConfigID is the primary key of the single shop_config row.
const ShopConfigID int64 = 1

// PublicGalleryLimit caps the gallery shown on the public page.
const PublicGalleryLimit = 8

// ShopConfig is the shop-wide booking switch. AgendaOpen gates the whole
// booking flow; OpeningTime is the "HH:MM" start of the working day.
type ShopConfig struct {
	bun.BaseModel `bun:"table:shop_config"`

	ID            int64     `bun:"id,pk"`
	AgendaOpen    bool      `bun:"agenda_open,notnull"`
	OpeningTime   string    `bun:"opening_time,notnull"`
	ClosedMessage string    `bun:"closed_message"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func (c *ShopConfig) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery, *bun.UpdateQuery:
		c.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// GalleryImage is a pointer to an already-hosted photo. Blob storage is owned
// by an external service; only URLs live here.
type GalleryImage struct {
	bun.BaseModel `bun:"table:gallery_images"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	URL       string    `bun:"url,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (g *GalleryImage) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if g.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			g.ID = id
		}
		if g.CreatedAt.IsZero() {
			g.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}
