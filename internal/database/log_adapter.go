package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// LogAdapter envoie les traces gorm vers le logger zerolog du contexte
type LogAdapter struct {
	level logger.LogLevel
}

func NewLogAdapter(level logger.LogLevel) *LogAdapter {
	return &LogAdapter{level: level}
}

func (l *LogAdapter) LogMode(level logger.LogLevel) logger.Interface {
	return &LogAdapter{level: level}
}

func (l *LogAdapter) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		zerolog.Ctx(ctx).Info().Msgf(msg, args...)
	}
}

func (l *LogAdapter) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		zerolog.Ctx(ctx).Warn().Msgf(msg, args...)
	}
}

func (l *LogAdapter) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		zerolog.Ctx(ctx).Error().Msgf(msg, args...)
	}
}

func (l *LogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	z := zerolog.Ctx(ctx)

	var event *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		event = z.Error().Err(err)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		event = z.Warn().Bool("slow", true)
	case l.level >= logger.Info:
		event = z.Debug()
	default:
		return
	}

	sql, rows := fc()
	event.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("gorm query")
}
