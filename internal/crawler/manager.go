package crawler

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/straying-cloud/sitemirror/internal/config"
	"github.com/straying-cloud/sitemirror/internal/fetcher"
	"github.com/straying-cloud/sitemirror/internal/pathmap"
)

// Manager owns the Frontier and runs the worker pool through two phases: a
// full-concurrency pass over the whole site, then one shrunk-pool retry pass
// over whatever failed the first time. Anything that still fails on retry is
// logged and left out of the mirror.
type Manager struct {
	cfg      *config.SiteConfig
	frontier *Frontier
	fetcher  *fetcher.Fetcher
	mapper   *pathmap.Mapper
	log      *logrus.Logger
	progress *Progress
}

// NewManager builds a Manager ready to crawl cfg.RootURL into cfg.HomeDir.
func NewManager(cfg *config.SiteConfig, log *logrus.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		frontier: NewFrontier(cfg),
		fetcher:  fetcher.New(cfg, log),
		mapper:   pathmap.New(cfg.HomeDir),
		log:      log,
		progress: NewProgress(),
	}
}

// Run crawls the site to completion: the initial pass, then the retry pass,
// then a final summary.
func (m *Manager) Run() {
	m.log.WithField("root", m.cfg.RootURL).Info("starting crawl")

	failed := m.runPhase(m.cfg.ThreadCount)
	m.log.WithField("failed", len(failed)).Info("initial pass complete")

	if len(failed) > 0 {
		m.frontier.Requeue(failed)
		stillFailed := m.runPhase(m.cfg.RetryThreadCount)
		for _, url := range stillFailed {
			m.log.WithField("url", url).Warn("giving up after retry")
		}
	}

	m.progress.Summary(m.log)
}

// runPhase drains the frontier with poolSize concurrent workers until the
// queue is empty and every worker is idle, then returns the URLs that
// errored during the phase.
func (m *Manager) runPhase(poolSize int) []string {
	var wg sync.WaitGroup
	var inFlight int64
	var failedMu sync.Mutex
	var failed []string

	busyWait := m.cfg.PollTimeout / 1000
	idleGrace := m.cfg.PollTimeout / 400

	worker := func() {
		defer wg.Done()
		for {
			url, ok := m.frontier.Dequeue()
			if !ok {
				if atomic.LoadInt64(&inFlight) != 0 {
					time.Sleep(busyWait)
					continue
				}
				time.Sleep(idleGrace)
				if m.frontier.Len() == 0 && atomic.LoadInt64(&inFlight) == 0 {
					return
				}
				continue
			}

			atomic.AddInt64(&inFlight, 1)
			var result jobResult
			func() {
				defer func() {
					if r := recover(); r != nil {
						result = jobResult{url: url, err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
					}
				}()
				result = process(m.fetcher, m.mapper, m.cfg.RootURL, m.cfg.SiteHost, url)
			}()
			if result.err != nil {
				failedMu.Lock()
				failed = append(failed, url)
				failedMu.Unlock()
				m.progress.Failed()
				m.log.WithError(result.err).WithField("url", url).Warn("fetch failed")
			} else {
				for _, link := range result.links {
					m.frontier.Enqueue(link)
				}
				m.progress.Fetched()
			}
			atomic.AddInt64(&inFlight, -1)
		}
	}

	for i := 0; i < poolSize; i++ {
		wg.Add(1)
		go worker()
	}
	wg.Wait()
	return failed
}
