package database

import (
	"time"

	"github.com/foodgram/foodgram/backend/internal/logger"
	gormlogger "gorm.io/gorm/logger"
)

type zerologWriter struct{}

func (zerologWriter) Printf(format string, args ...interface{}) {
	logger.Logger.Warn().Str("component", "gorm").Msgf(format, args...)
}

// NewGormLogger routes gorm's own logging through zerolog.
func NewGormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(zerologWriter{}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
