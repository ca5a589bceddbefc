// Package pathmap maps site URLs to local filesystem paths: total,
// deterministic, and reversible enough that two URLs that should share one
// local file map to the same path.
package pathmap

import (
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/straying-cloud/sitemirror/internal/classifier"
)

// Mapper maps absolute URLs under one site to local filesystem paths rooted
// at homeDir.
type Mapper struct {
	homeDir string
}

// New returns a Mapper rooted at homeDir (the site's "<host>-site" directory).
func New(homeDir string) *Mapper {
	return &Mapper{homeDir: homeDir}
}

// encodeMarkers is the set of percent-escapes that get a hyphen spliced in
// after their second character, so "%2B" becomes "%2-B". The original source
// once included "%2F" here too (see the comment in its encode_link); that
// marker was dropped because it broke nested directory structure, and is
// kept out here to match current behavior.
var encodeMarkers = []string{"%2B", "%20", "%3F", "%25", "%26", "%3D"}

// EncodeLink applies the round-trippable percent-escape used for on-disk
// filenames: unquote, re-quote, then splice a '-' into each marker so the
// result doesn't look like a raw percent-escape to a filesystem or browser
// that dislikes them.
func EncodeLink(link string) string {
	// PathUnescape, not QueryUnescape: a literal '+' must stay '+' so that it
	// re-quotes to "%2B" instead of turning into a space.
	if unq, err := url.PathUnescape(link); err == nil {
		link = unq
	}
	link = url.QueryEscape(link)
	// QueryEscape turns '/' into "%2F" and ' ' into '+'; the original
	// operates on a path-escaped string where '/' survives, so restore it.
	link = strings.ReplaceAll(link, "%2F", "/")
	link = strings.ReplaceAll(link, "+", "%20")
	for _, marker := range encodeMarkers {
		if strings.Contains(link, marker) {
			link = strings.ReplaceAll(link, marker, marker[:2]+"-"+marker[2:])
		}
	}
	return link
}

// decodeMarkers mirrors encodeMarkers with the hyphen already spliced in.
var decodeMarkers = []string{"%2-B", "%2-0", "%3-F", "%2-5", "%2-6", "%3-D"}

// DecodeLink undoes EncodeLink's hyphen splice, recovering the percent-escape
// form.
func DecodeLink(link string) string {
	for _, marker := range decodeMarkers {
		if strings.Contains(link, marker) {
			link = strings.ReplaceAll(link, marker, marker[:2]+marker[3:])
		}
	}
	return link
}

// Map computes the absolute local filesystem path for an absolute URL, in
// eight steps:
//  1. backslash normalization (the caller is expected to have already done
//     this; Map does it again defensively)
//  2. trailing-slash -> index.html
//  3. bare-domain -> /index.html
//  4. hyphen-escaped percent-encoding
//  5. scheme/netloc stripped, joined under homeDir
//  6. suffix-less or percent-suffixed paths get ".html" appended
//  7. ".." collapse
//  8. existing-directory widening to ".../index.html"
func (m *Mapper) Map(rawURL string) string {
	link := strings.ReplaceAll(rawURL, "\\", "/")

	switch {
	case strings.HasSuffix(link, "/"):
		link += "index.html"
	case classifier.IsBareDomain(link):
		link += "/index.html"
	}

	link = EncodeLink(link)

	last := link
	if idx := strings.LastIndex(link, "/"); idx >= 0 {
		last = link[idx+1:]
	}
	if !strings.Contains(last, ".") || strings.Contains(lastSuffix(last), "%") {
		link += ".html"
	}

	stripped := stripScheme(link)
	joined := path.Join(m.homeDir, stripped)
	joined = collapseDotDot(joined)

	if info, err := os.Stat(joined); err == nil && info.IsDir() {
		joined = path.Join(joined, "index.html")
	}

	return joined
}

// lastSuffix returns the part of s after its last '.', or "" if there is
// none.
func lastSuffix(s string) string {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return ""
	}
	return s[idx+1:]
}

// stripScheme removes "scheme://" from the front of an encoded URL, leaving
// "host/path...".
func stripScheme(link string) string {
	if idx := strings.Index(link, "//"); idx >= 0 {
		return link[idx+2:]
	}
	return link
}

// collapseDotDot collapses the first ".." in p by dropping the two path
// segments preceding it and keeping the remainder, rather than the standard
// path.Clean semantics.
func collapseDotDot(p string) string {
	idx := strings.Index(p, "..")
	if idx < 0 {
		return p
	}
	before := p[:idx]
	after := p[idx+2:]
	segments := strings.Split(strings.TrimSuffix(before, "/"), "/")
	if len(segments) > 2 {
		segments = segments[:len(segments)-2]
	} else {
		segments = nil
	}
	return strings.Join(segments, "/") + after
}

// RelativePath computes the POSIX relative path from the directory
// containing referrerPath to targetPath, as used when rewriting a link found
// in the document saved at referrerPath.
func RelativePath(referrerPath, targetPath string) string {
	from := path.Dir(referrerPath)
	rel, err := relPath(from, targetPath)
	if err != nil {
		return targetPath
	}
	return rel
}

// relPath is a POSIX-only relative-path calculation (filepath.Rel assumes
// the OS path separator; the mapper always works in '/'-separated paths).
func relPath(from, to string) (string, error) {
	fromParts := splitClean(from)
	toParts := splitClean(to)

	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}

	up := strings.Repeat("../", len(fromParts)-common)
	down := strings.Join(toParts[common:], "/")
	result := up + down
	if result == "" {
		return ".", nil
	}
	return result, nil
}

func splitClean(p string) []string {
	p = path.Clean(p)
	if p == "." || p == "/" {
		return nil
	}
	p = strings.TrimPrefix(p, "/")
	return strings.Split(p, "/")
}
