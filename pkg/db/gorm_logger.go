package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const defaultSlowQuery = 200 * time.Millisecond

// gormLogger forwards GORM traces to the service logger: failed statements
// and slow queries at warn, everything else dropped. Missing rows are normal
// for cart lookups and are not reported.
type gormLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
	silent        bool
}

func newGormLogger(logg *logger.Logger, slow time.Duration) *gormLogger {
	return &gormLogger{logg: logg, slowThreshold: slow}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.silent = level == gormlogger.Silent
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.silent {
		return
	}
	g.logg.Debug(g.logg.WithField(ctx, "detail", fmt.Sprintf(msg, args...)), "db.gorm.info")
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.silent {
		return
	}
	g.logg.Warn(g.logg.WithField(ctx, "detail", fmt.Sprintf(msg, args...)), "db.gorm.warn")
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.silent {
		return
	}
	g.logg.WarnErr(ctx, "db.gorm.error", errors.New(fmt.Sprintf(msg, args...)))
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := g.slowThreshold > 0 && elapsed > g.slowThreshold
	if !failed && !slow {
		return
	}

	sql, rows := fc()
	ctx = g.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
	if failed {
		g.logg.WarnErr(ctx, "db.query.failed", err)
		return
	}
	g.logg.Warn(ctx, "db.query.slow")
}
