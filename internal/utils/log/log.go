package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// Unit tests enter through package init rather than main, so the logger has
// to be ready before anything calls Log.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()
	logger.SetOutput(os.Stderr)

	if os.Getenv("TECHINK_ENV") == "prod" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = logger.WithFields(
		logrus.Fields{"service": "techink", "is_development": os.Getenv("TECHINK_ENV") != "prod"},
	)
}
