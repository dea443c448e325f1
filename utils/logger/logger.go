package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Components receive it as a
// logrus.FieldLogger and attach their own "component" field.
var Log = logrus.New()

// Setup configures Log from the LOG_LEVEL / LOG_FORMAT settings.
func Setup(level, format string) *logrus.Logger {
	Log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return Log
}

// Component returns a child logger tagged with the component name.
func Component(base logrus.FieldLogger, name string) logrus.FieldLogger {
	if base == nil {
		base = Log
	}
	return base.WithField("component", name)
}
