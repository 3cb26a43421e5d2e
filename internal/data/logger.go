package data

import (
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm/logger"
)

// gormWriter routes gorm's warnings and slow query reports to kratos log.
type gormWriter struct {
	log *log.Helper
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}

func newGormLogger(l log.Logger, slow time.Duration) logger.Interface {
	return logger.New(gormWriter{log: log.NewHelper(log.With(l, "module", "gorm"))}, logger.Config{
		SlowThreshold:             slow,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
