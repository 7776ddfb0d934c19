package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository persists snapshots in the cart_snapshots table.
type SnapshotRepository struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSnapshotRepository stores snapshots in cart_snapshots; rows expire ttl after their last write.
func NewSnapshotRepository(db *gorm.DB, ttl time.Duration) (*SnapshotRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	return &SnapshotRepository{
		db:  db,
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (r *SnapshotRepository) Read(ctx context.Context, sessionID string) ([]byte, error) {
	var row models.CartSnapshot
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Where("expires_at IS NULL OR expires_at > ?", r.now()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.Payload, nil
}

func (r *SnapshotRepository) Write(ctx context.Context, sessionID string, payload []byte) error {
	row := models.CartSnapshot{
		SessionID: sessionID,
		Payload:   payload,
	}
	if r.ttl > 0 {
		expires := r.now().Add(r.ttl)
		row.ExpiresAt = &expires
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *SnapshotRepository) Delete(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.CartSnapshot{}).Error
}

// PurgeExpired deletes rows whose expiry has passed and returns how many were removed.
func (r *SnapshotRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", r.now()).
		Delete(&models.CartSnapshot{})
	return res.RowsAffected, res.Error
}
