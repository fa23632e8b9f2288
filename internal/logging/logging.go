package logging

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Configure sets up the standard logger the way Cloud Logging expects it:
// JSON lines with the text under "message".
func Configure(level string) {
	log.SetFormatter(formatter())
	log.SetLevel(parseLevel(level))
}

// New returns a standalone logger with the same format, writing to w.
func New(w io.Writer, level string) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)
	logger.SetFormatter(formatter())
	logger.SetLevel(parseLevel(level))
	return logger
}

// TokenPrefix shortens a push token for logs and diagnostics.
func TokenPrefix(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}

func formatter() log.Formatter {
	return &log.JSONFormatter{
		FieldMap: log.FieldMap{log.FieldKeyMsg: "message"},
	}
}

func parseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
