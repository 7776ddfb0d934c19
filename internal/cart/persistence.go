package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/money"
)

// ErrNotFound is returned by a Storage when no record exists for the session.
var ErrNotFound = errors.New("cart snapshot not found")

// Storage is the durable key/value surface the bridge mirrors carts into.
type Storage interface {
	Read(ctx context.Context, sessionID string) ([]byte, error)
	Write(ctx context.Context, sessionID string, payload []byte) error
	Delete(ctx context.Context, sessionID string) error
}

const snapshotVersion = 1

const (
	hydrationHit     = "hit"
	hydrationMiss    = "miss"
	hydrationCorrupt = "corrupt"
	hydrationError   = "error"
)

type persistedItem struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	DisplayName    string `json:"display_name"`
	ImageRef       string `json:"image_ref,omitempty"`
}

type persistedCart struct {
	Version int             `json:"version"`
	Items   []persistedItem `json:"items"`
	SavedAt time.Time       `json:"saved_at"`
}

// Bridge mirrors carts to a Storage and restores them on hydration.
type Bridge struct {
	storage Storage
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	now     func() time.Time
}

// NewBridge wires a bridge over the given storage.
func NewBridge(storage Storage, logg *logger.Logger, m *metrics.CartMetrics) (*Bridge, error) {
	if storage == nil {
		return nil, fmt.Errorf("cart storage required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Bridge{
		storage: storage,
		logg:    logg,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Save writes the aggregate's line items. Totals are not stored.
func (b *Bridge) Save(ctx context.Context, sessionID string, agg Aggregate) error {
	payload, err := encodeSnapshot(agg, b.now())
	if err != nil {
		return fmt.Errorf("encode cart snapshot: %w", err)
	}
	if err := b.storage.Write(ctx, sessionID, payload); err != nil {
		return fmt.Errorf("write cart snapshot: %w", err)
	}
	return nil
}

// Load restores the persisted cart. It never fails: any problem with the
// stored record yields an empty cart.
func (b *Bridge) Load(ctx context.Context, sessionID string) Aggregate {
	payload, err := b.storage.Read(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			b.metrics.IncHydration(hydrationMiss)
			return EmptyAggregate()
		}
		b.metrics.IncHydration(hydrationError)
		b.logg.WarnErr(ctx, "cart.hydrate.read_failed", err)
		return EmptyAggregate()
	}

	agg, err := decodeSnapshot(payload)
	if err != nil {
		b.metrics.IncHydration(hydrationCorrupt)
		b.logg.WarnErr(ctx, "cart.hydrate.discarded", err)
		return EmptyAggregate()
	}

	b.metrics.IncHydration(hydrationHit)
	return agg
}

// Clear erases the persisted record. A missing record is not an error.
func (b *Bridge) Clear(ctx context.Context, sessionID string) error {
	if err := b.storage.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("delete cart snapshot: %w", err)
	}
	return nil
}

func encodeSnapshot(agg Aggregate, savedAt time.Time) ([]byte, error) {
	record := persistedCart{
		Version: snapshotVersion,
		Items:   make([]persistedItem, 0, len(agg.Items)),
		SavedAt: savedAt,
	}
	for _, item := range agg.Items {
		record.Items = append(record.Items, persistedItem{
			ProductID:      item.Product.ID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.Product.UnitPrice.Cents(),
			DisplayName:    item.Product.Name,
			ImageRef:       item.Product.ImageRef,
		})
	}
	return json.Marshal(record)
}

func decodeSnapshot(payload []byte) (Aggregate, error) {
	var record persistedCart
	if err := json.Unmarshal(payload, &record); err != nil {
		return Aggregate{}, fmt.Errorf("parse cart snapshot: %w", err)
	}
	if record.Version != snapshotVersion {
		return Aggregate{}, fmt.Errorf("unsupported cart snapshot version %d", record.Version)
	}

	items := make([]LineItem, 0, len(record.Items))
	for _, stored := range record.Items {
		items = append(items, LineItem{
			Product: Product{
				ID:        stored.ProductID,
				Name:      stored.DisplayName,
				UnitPrice: money.FromCents(stored.UnitPriceCents),
				ImageRef:  stored.ImageRef,
			},
			Quantity: stored.Quantity,
		})
	}
	if err := checkLines(items); err != nil {
		return Aggregate{}, err
	}
	return Summarize(items), nil
}
