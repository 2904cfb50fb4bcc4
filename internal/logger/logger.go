package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = os.Stderr
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Init applies the log level from the environment. Unknown levels keep the
// default. Called once from main; library code just uses Log.
func Init() {
	if lvl, err := logrus.ParseLevel(os.Getenv("HOTERIER_LOG_LEVEL")); err == nil {
		Log.SetLevel(lvl)
	}
	if path := os.Getenv("HOTERIER_LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err == nil {
			Log.Out = f
		}
	}
}

// Silence redirects all output to the given writer; tests pass io.Discard.
func Silence(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	Log.Out = w
}
