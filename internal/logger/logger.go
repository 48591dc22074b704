package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

// global accessible logger
var (
	base *logrus.Logger
	Log  *logrus.Entry
)

// Tests never call Init, so set up a usable default here.
func init() {
	Init("info", false)
}

func Init(level string, json bool) {
	base = logrus.New()
	base.SetOutput(os.Stderr)

	if json {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)

	Log = base.WithFields(logrus.Fields{"service": "agora"})
}

// Gorm returns a gorm logger that writes through logrus.
func Gorm(level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(
		Log.WithField("component", "gorm"),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
