package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure applies the level and format from configuration. Unknown levels fall back to info.
func Configure(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func Info(format string, v ...interface{}) {
	Log.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	Log.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	Log.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	Log.Warnf(format, v...)
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Log.WithField(key, value)
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return Log.WithFields(fields)
}

// LogTransitionError records a side effect that failed after the authoritative status change.
func LogTransitionError(reportID, action string, err error) {
	Log.WithFields(logrus.Fields{
		"report_id": reportID,
		"action":    action,
	}).WithError(err).Warn("transition side effect failed")
}
