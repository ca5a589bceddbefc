package crawler

import (
	"fmt"
	"os"

	"github.com/straying-cloud/sitemirror/internal/classifier"
	"github.com/straying-cloud/sitemirror/internal/extractor"
	"github.com/straying-cloud/sitemirror/internal/fetcher"
	"github.com/straying-cloud/sitemirror/internal/pathmap"
)

// jobResult is what processing one URL produces: either an error, or the
// set of further URLs it discovered.
type jobResult struct {
	url   string
	links []string
	err   error
}

// process fetches a single URL, writes it to its mapped local path, and (for
// HTML/CSS documents) rewrites its links and returns the URLs it discovered.
func process(f *fetcher.Fetcher, mapper *pathmap.Mapper, rootURL, siteHost, rawURL string) jobResult {
	localPath := mapper.Map(rawURL)

	if classifier.ClassifyKind(rawURL) == classifier.Binary {
		if err := f.DownloadFile(rawURL, localPath); err != nil {
			return jobResult{url: rawURL, err: fmt.Errorf("downloading %s: %w", rawURL, err)}
		}
		return jobResult{url: rawURL}
	}

	text, err := f.FetchText(rawURL)
	if err != nil {
		return jobResult{url: rawURL, err: fmt.Errorf("fetching %s: %w", rawURL, err)}
	}

	isCSS := classifier.IsCSS(rawURL)
	rawLinks := extractor.Extract(text, isCSS)
	discovered := extractor.Discover(rawLinks, rootURL, rawURL, siteHost)
	rewritten := extractor.Rewrite(text, rawLinks, rootURL, rawURL, siteHost, mapper)

	if err := writeFile(localPath, []byte(rewritten)); err != nil {
		return jobResult{url: rawURL, err: fmt.Errorf("writing %s: %w", localPath, err)}
	}
	return jobResult{url: rawURL, links: discovered}
}

// writeFile writes data to path atomically via a temp file plus rename,
// creating parent directories as needed.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(parentDir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func parentDir(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return "."
}
