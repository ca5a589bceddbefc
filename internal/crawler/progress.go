package crawler

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Progress tracks the running totals of a crawl: pages fetched successfully
// and failed attempts, counted in both the initial and the retry pass (a URL
// that fails first and succeeds on retry is counted once in each).
type Progress struct {
	fetched int64
	failed  int64
	start   time.Time
}

// NewProgress starts a fresh counter, clock running from now.
func NewProgress() *Progress {
	return &Progress{start: time.Now()}
}

// Fetched records one successfully saved URL.
func (p *Progress) Fetched() {
	atomic.AddInt64(&p.fetched, 1)
}

// Failed records one URL that errored.
func (p *Progress) Failed() {
	atomic.AddInt64(&p.failed, 1)
}

// Summary logs the final counts and elapsed time.
func (p *Progress) Summary(log *logrus.Logger) {
	log.WithFields(logrus.Fields{
		"fetched": p.fetched,
		"failed":  p.failed,
		"elapsed": time.Since(p.start).Round(time.Second).String(),
	}).Info("crawl finished")
}
