// Package crawler implements the worker pool that walks a site's link graph:
// a shared Frontier for deduplication and queuing, Workers that fetch and
// classify one URL at a time, and a Manager that drains discovered links
// back onto the Frontier and runs a one-shot retry pass over failures before
// shutting down.
package crawler

import (
	"strings"
	"sync"

	"github.com/straying-cloud/sitemirror/internal/config"
)

// Frontier is the shared dedup set and FIFO queue all workers pull from and
// push discovered links onto.
type Frontier struct {
	mu     sync.Mutex
	seen   map[string]bool
	queue  []string
	cfg    *config.SiteConfig
	siteID string
}

// NewFrontier returns a Frontier seeded with rootURL already enqueued.
func NewFrontier(cfg *config.SiteConfig) *Frontier {
	f := &Frontier{
		seen:   make(map[string]bool),
		cfg:    cfg,
		siteID: cfg.SiteHost,
	}
	f.Enqueue(cfg.RootURL)
	return f
}

// Enqueue adds url to the queue if it passes the length limit and hasn't
// been seen before. It returns true if the URL was newly queued.
func (f *Frontier) Enqueue(url string) bool {
	if clean, ok := f.sanitize(url); ok {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.seen[clean] {
			return false
		}
		f.seen[clean] = true
		f.queue = append(f.queue, clean)
		return true
	}
	return false
}

// sanitize strips a trailing fragment, rejects URLs at or over the length
// limit,
// and rejects URLs outside the root URL's own prefix: the root URL string
// must be a substring of the candidate, the stricter of the two scope checks
// the original crawler used.
func (f *Frontier) sanitize(url string) (string, bool) {
	if idx := strings.Index(url, "#"); idx >= 0 {
		url = url[:idx]
	}
	if url == "" || len(url) >= config.MaxURLLength {
		return "", false
	}
	if !strings.Contains(url, f.cfg.RootURL) {
		return "", false
	}
	return url, true
}

// Dequeue pops the next URL off the queue, FIFO. ok is false if the queue is
// empty.
func (f *Frontier) Dequeue() (url string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return "", false
	}
	url, f.queue = f.queue[0], f.queue[1:]
	return url, true
}

// Len reports the number of URLs currently queued.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Requeue resets the seen set for urls and enqueues them again, used by the
// manager's one-shot retry pass so previously-failed URLs aren't rejected as
// duplicates.
func (f *Frontier) Requeue(urls []string) {
	f.mu.Lock()
	for _, u := range urls {
		delete(f.seen, u)
	}
	f.mu.Unlock()
	for _, u := range urls {
		f.Enqueue(u)
	}
}
