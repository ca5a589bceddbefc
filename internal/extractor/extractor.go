// Package extractor finds URLs inside HTML/CSS text with the same two
// regexes the original crawler used, normalizes them, and rewrites the
// source text so in-scope URLs become relative paths to their mapped local
// files.
//
// The regexes are deliberately not a real HTML/CSS parser: a real parser
// would under-match (skip URLs the original site happens to serve in a form
// an HTML5 parser wouldn't recognize as an attribute) or over-match
// differently, and either would silently change which files get mirrored.
package extractor

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/straying-cloud/sitemirror/internal/classifier"
	"github.com/straying-cloud/sitemirror/internal/pathmap"
)

// htmlPattern captures the URL inside href="..." / src='...'.
var htmlPattern = regexp.MustCompile(`(?:href|src)=("|')([^"']*)`)

// cssPattern captures the URL inside url("...") / url('...').
var cssPattern = regexp.MustCompile(`url\(("|')([^"']*)`)

// Extract returns the deduplicated set of raw URL strings found in text. For
// CSS documents only cssPattern is applied; for everything else both
// patterns are applied and unioned, since CSS rewriting is just HTML
// rewriting restricted to url(...) references.
func Extract(text string, isCSS bool) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	if !isCSS {
		for _, m := range htmlPattern.FindAllStringSubmatch(text, -1) {
			add(m[2])
		}
	}
	for _, m := range cssPattern.FindAllStringSubmatch(text, -1) {
		add(m[2])
	}
	return out
}

// Normalize fixes up common malformed-protocol forms in a raw extracted URL
// (protocol-relative "//...", bare "/path", and truncated "http:/"/"https:/"
// schemes) before the URL is resolved against its referrer. rootURL is used
// to resolve a leading "/..." path.
func Normalize(raw, rootURL string) string {
	switch {
	case strings.HasPrefix(raw, "//"):
		scheme := "http"
		if u, err := url.Parse(rootURL); err == nil && u.Scheme != "" {
			scheme = u.Scheme
		}
		return scheme + ":" + raw
	case strings.HasPrefix(raw, "/"):
		base, err := url.Parse(rootURL)
		if err != nil {
			return raw
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return raw
		}
		return base.ResolveReference(ref).String()
	case strings.HasPrefix(raw, "http:/") && !strings.HasPrefix(raw, "http://"):
		return "http://" + strings.TrimPrefix(raw, "http:/")
	case strings.HasPrefix(raw, "https:/") && !strings.HasPrefix(raw, "https://"):
		return "https://" + strings.TrimPrefix(raw, "https:/")
	case strings.HasPrefix(raw, "http:") && !strings.HasPrefix(raw, "http://"):
		return "http://" + strings.TrimPrefix(raw, "http:")
	case strings.HasPrefix(raw, "https:") && !strings.HasPrefix(raw, "https://"):
		return "https://" + strings.TrimPrefix(raw, "https:")
	default:
		return raw
	}
}

// ResolveViewer implements the "later" get_viewer_file_link variant: a URL
// containing "viewer.html?file=<inner>" is treated as a reference to
// <inner>, resolved against the referring document's URL (not the root).
func ResolveViewer(link string, referrer *url.URL) string {
	if unq, err := url.QueryUnescape(link); err == nil {
		link = unq
	}
	const marker = "viewer.html?file="
	idx := strings.Index(link, marker)
	if idx < 0 {
		return link
	}
	inner := link[idx+len(marker):]
	ref, err := url.Parse(inner)
	if err != nil {
		return inner
	}
	return referrer.ResolveReference(ref).String()
}

// splitFragment separates a trailing "#fragment" from a URL, returning the
// URL without it and the fragment including its leading '#' (or "" if none).
func splitFragment(u string) (string, string) {
	if idx := strings.Index(u, "#"); idx >= 0 {
		return u[:idx], u[idx:]
	}
	return u, ""
}

// Resolve turns a raw extracted URL into its absolute form as seen from
// referrerURL: normalization, fragment-stripping, viewer-indirection, and
// relative resolution all applied, in that order. It returns the absolute URL
// (without fragment) and the fragment (with leading '#', or "").
func Resolve(raw, rootURL, referrerURL string) (absolute, fragment string, err error) {
	normalized := Normalize(raw, rootURL)
	withoutFrag, frag := splitFragment(normalized)

	referrer, err := url.Parse(referrerURL)
	if err != nil {
		return "", "", err
	}

	viewerResolved := ResolveViewer(withoutFrag, referrer)

	ref, err := url.Parse(viewerResolved)
	if err != nil {
		return "", "", err
	}
	resolved := referrer.ResolveReference(ref)
	return resolved.String(), frag, nil
}

// Discover resolves every raw link against referrerURL and returns the
// absolute URLs that pass the in-scope predicate, deduplicated. These are
// the URLs a worker publishes to its outbox.
func Discover(rawLinks []string, rootURL, referrerURL, siteHost string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, raw := range rawLinks {
		if !classifier.InScope(raw, siteHost) {
			continue
		}
		abs, _, err := Resolve(raw, rootURL, referrerURL)
		if err != nil {
			continue
		}
		if !classifier.InScope(abs, siteHost) {
			continue
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}

// Rewrite replaces every in-scope raw link in text with the encoded relative
// path to its mapped local file, so the saved document is navigable offline.
// Links are processed in descending length order so a shorter URL can't
// match as a prefix of a longer one first.
func Rewrite(text string, rawLinks []string, rootURL, referrerURL, siteHost string, mapper *pathmap.Mapper) string {
	sorted := make([]string, len(rawLinks))
	copy(sorted, rawLinks)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	referrerPath := mapper.Map(referrerURL)

	for _, raw := range sorted {
		if !classifier.InScope(raw, siteHost) {
			continue
		}
		abs, frag, err := Resolve(raw, rootURL, referrerURL)
		if err != nil {
			continue
		}
		targetPath := mapper.Map(abs)
		rel := pathmap.RelativePath(referrerPath, targetPath)
		if frag != "" {
			rel += frag
		}

		replacement := `"` + rel + `"`
		text = strings.ReplaceAll(text, `"`+raw+`"`, replacement)
		text = strings.ReplaceAll(text, `'`+raw+`'`, replacement)
	}
	return text
}
