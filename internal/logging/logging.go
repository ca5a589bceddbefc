// Package logging sets up the process-wide logger shared by the Manager and
// every worker: stdout plus a log.log file truncated at the start of each run.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New opens log.log (truncating any previous run's file) and returns a logger
// that writes every entry to both stdout and the file, UTF-8, leveled.
func New() (*logrus.Logger, func(), error) {
	f, err := os.OpenFile("log.log", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log.log: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	return logger, func() { f.Close() }, nil
}
