package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger adapts slog to GORM's logger.Interface. Queries log at DEBUG,
// slow queries and query errors at WARN.
type GormLogger struct {
	logger        *slog.Logger
	slowThreshold time.Duration
}

func NewGormLogger(l *slog.Logger, slowThreshold time.Duration) *GormLogger {
	if l == nil {
		l = Discard()
	}
	return &GormLogger{logger: l, slowThreshold: slowThreshold}
}

// LogMode returns the logger unchanged; levels come from the slog handler.
func (g *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return g
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.logger.DebugContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	if !g.logger.Enabled(ctx, slog.LevelWarn) {
		return
	}
	sql, rows := fc()

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		g.logger.WarnContext(ctx, "query error",
			"sql", sql,
			"rows_affected", rows,
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold:
		g.logger.WarnContext(ctx, "slow query",
			"sql", sql,
			"rows_affected", rows,
			"duration_ms", elapsed.Milliseconds(),
			"threshold", g.slowThreshold)
	default:
		g.logger.DebugContext(ctx, "sql query",
			"sql", sql,
			"rows_affected", rows,
			"duration_ms", elapsed.Milliseconds())
	}
}
