package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

type registrySweeper interface {
	Sweep() int
}

type snapshotPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewRegistrySweepJob drops idle carts from the in-memory registry.
func NewRegistrySweepJob(registry registrySweeper, logg *logger.Logger) (Job, error) {
	if registry == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &registrySweepJob{registry: registry, logg: logg}, nil
}

type registrySweepJob struct {
	registry registrySweeper
	logg     *logger.Logger
}

func (j *registrySweepJob) Name() string { return "cart-registry-sweep" }

func (j *registrySweepJob) Run(ctx context.Context) error {
	if dropped := j.registry.Sweep(); dropped > 0 {
		j.logg.Info(j.logg.WithField(ctx, "dropped", dropped), "cart.registry.swept")
	}
	return nil
}

// NewSnapshotPurgeJob deletes persisted carts whose expiry has passed.
func NewSnapshotPurgeJob(repo snapshotPurger, logg *logger.Logger) (Job, error) {
	if repo == nil {
		return nil, fmt.Errorf("snapshot repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &snapshotPurgeJob{repo: repo, logg: logg}, nil
}

type snapshotPurgeJob struct {
	repo snapshotPurger
	logg *logger.Logger
}

func (j *snapshotPurgeJob) Name() string { return "cart-snapshot-purge" }

func (j *snapshotPurgeJob) Run(ctx context.Context) error {
	deleted, err := j.repo.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired snapshots: %w", err)
	}
	if deleted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "deleted", deleted), "cart.snapshots.purged")
	}
	return nil
}
