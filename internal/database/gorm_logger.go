package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GORMLogger forwards GORM's output to the global zerolog logger.
type GORMLogger struct {
	level logger.LogLevel
}

// NewGORMLogger returns a GORM logger that emits records at or above level.
func NewGORMLogger(level logger.LogLevel) *GORMLogger {
	return &GORMLogger{level: level}
}

// LogMode returns a copy of the logger with a different level.
func (l *GORMLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

func (l *GORMLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		log.Info().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GORMLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		log.Warn().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GORMLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		log.Error().Str("component", "gorm").Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed and slow statements. Missing rows and unique violations
// are reported to callers as errors and are not logged here.
func (l *GORMLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		sql, rows := fc()
		log.Error().Err(err).Str("component", "gorm").Str("sql", sql).Int64("rows", rows).
			Dur("elapsed", elapsed).Msg("query failed")
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		log.Warn().Str("component", "gorm").Str("sql", sql).Int64("rows", rows).
			Dur("elapsed", elapsed).Msg("slow query")
	case l.level >= logger.Info:
		sql, rows := fc()
		log.Debug().Str("component", "gorm").Str("sql", sql).Int64("rows", rows).
			Dur("elapsed", elapsed).Msg("query")
	}
}
