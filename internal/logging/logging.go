// Package logging provides the shared logrus logger for the service.
//
// Components take a named entry once and log through it:
//
//	log := logging.Component("scheduler")
//	log.WithField("task_type", t).Info("delta appended")
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the process-wide logger.
var Logger = newLogger(logrus.InfoLevel, false, os.Stdout)

func newLogger(level logrus.Level, jsonFormat bool, out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Init reconfigures the global logger. Unknown level names fall back to info.
func Init(level string, jsonFormat bool) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Logger.SetLevel(lvl)
	if jsonFormat {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Component returns an entry tagged with the component name.
func Component(name string) *logrus.Entry {
	return Logger.WithField("component", name)
}

// Critical logs at error level with severity=critical. logrus has no level
// between error and fatal, and fatal exits the process.
func Critical(entry *logrus.Entry, msg string) {
	entry.WithField("severity", "critical").Error(msg)
}
