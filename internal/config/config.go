// Package config defines the immutable runtime configuration of a crawl.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults mirror the constants at the top of the original crawler: THREAD_NUM,
// TRY_ERROR_LINK_THREAD_NUM, SPIDER_GET_LINK_TIMEOUT, SOCKET_DEFAULT_TIMEOUT,
// SOCKET_DOWNLOAD_TIMEOUT and MAX_TRY.
const (
	DefaultThreadCount      = 64
	DefaultRetryThreadCount = 3
	DefaultMaxRetries       = 6
	DefaultFetchTimeout     = 300 * time.Second
	DefaultDownloadTimeout  = 60 * time.Minute
	DefaultPollTimeout      = 10 * time.Second

	// DefaultRootURL is the CLI default, kept from the original --url flag.
	DefaultRootURL = "http://www.daorenjia.com/"

	// MaxURLLength is the silent drop threshold the Manager applies to newly
	// discovered links.
	MaxURLLength = 250
)

// SiteConfig is the immutable, shared-read-only configuration for one crawl run.
type SiteConfig struct {
	RootURL  string
	SiteHost string
	Scheme   string
	HomeDir  string

	MaxRetries       int
	ThreadCount      int
	RetryThreadCount int
	FetchTimeout     time.Duration
	DownloadTimeout  time.Duration
	PollTimeout      time.Duration
}

// New builds a SiteConfig from a root URL, applying the package defaults for
// everything the CLI does not expose.
func New(rootURL string) (*SiteConfig, error) {
	parsed, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("parsing root URL %q: %w", rootURL, err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("root URL %q has no host", rootURL)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}

	return &SiteConfig{
		RootURL:          rootURL,
		SiteHost:         strings.TrimSuffix(parsed.Host, ":80"),
		Scheme:           parsed.Scheme,
		HomeDir:          parsed.Host + "-site",
		MaxRetries:       DefaultMaxRetries,
		ThreadCount:      DefaultThreadCount,
		RetryThreadCount: DefaultRetryThreadCount,
		FetchTimeout:     DefaultFetchTimeout,
		DownloadTimeout:  DefaultDownloadTimeout,
		PollTimeout:      DefaultPollTimeout,
	}, nil
}
