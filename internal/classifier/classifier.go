// Package classifier decides whether a discovered URL belongs on the
// frontier at all, and if so whether it should be parsed/rewritten or
// downloaded verbatim.
package classifier

import (
	"net/url"
	"path"
	"strings"
)

// Kind is the dispatch decision for a URL: whether the worker treats it as
// markup to parse and rewrite, or bytes to stream to disk.
type Kind int

const (
	// Html covers both HTML documents and CSS (CSS is extraction-only, see
	// IsCSS).
	Html Kind = iota
	Binary
)

// binarySuffixes is OTHER_SUFFIXES from the original source, verbatim.
var binarySuffixes = map[string]bool{
	"js": true, "jpg": true, "png": true, "gif": true, "svg": true, "json": true,
	"xml": true, "ico": true, "jpeg": true, "ttf": true, "mp3": true, "mp4": true,
	"wav": true, "doc": true, "xls": true, "pdf": true, "docx": true, "xlsx": true,
	"eot": true, "woff": true, "csv": true, "swf": true, "tar": true, "gz": true,
	"zip": true, "rar": true, "txt": true, "exe": true, "ppt": true, "pptx": true,
	"m3u8": true, "avi": true, "wsf": true,
}

// mediaSuffixes is MEDIA_SUFFIXES: the subset that uses the longer download
// timeout instead of the fetch timeout.
var mediaSuffixes = map[string]bool{
	"mp3": true, "mp4": true, "pdf": true, "gz": true, "tar": true, "zip": true,
	"rar": true, "wav": true, "m3u8": true, "avi": true,
}

// domainSuffixes is DOMAIN_NAME: suffixes that mark a URL as a bare domain
// (no path), used by the path mapper to decide whether to append
// "/index.html".
var domainSuffixes = map[string]bool{
	"com": true, "cn": true, "net": true, "org": true, "gov": true, "io": true,
}

// Suffix returns the lowercase suffix after the last '.' in the URL's path,
// ignoring query string and fragment.
func Suffix(rawURL string) string {
	clean := rawURL
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	dot := strings.LastIndex(clean, ".")
	if dot < 0 {
		return ""
	}
	slash := strings.LastIndex(clean, "/")
	if dot < slash {
		return ""
	}
	return strings.ToLower(clean[dot+1:])
}

// ClassifyKind returns Binary for anything in the binary suffix set, Html
// otherwise (including bare pages and CSS).
func ClassifyKind(rawURL string) Kind {
	if binarySuffixes[Suffix(rawURL)] {
		return Binary
	}
	return Html
}

// IsCSS reports whether the URL should be treated as a CSS document: parsed
// with the CSS-only regex instead of the HTML+CSS pair.
func IsCSS(rawURL string) bool {
	return Suffix(rawURL) == "css"
}

// IsMedia reports whether the URL's suffix is in the media subset, meaning
// the fetcher should apply the longer download timeout.
func IsMedia(rawURL string) bool {
	return mediaSuffixes[Suffix(rawURL)]
}

// IsDomainSuffix reports whether s (typically the last '.'-separated
// component of a path segment) is one of the bare-domain TLD markers.
func IsDomainSuffix(s string) bool {
	return domainSuffixes[strings.ToLower(s)]
}

// InScope implements the later (full-host-equality) variant of the two scope
// predicates found in the original source: reject javascript:, @ (mailto-like
// links), data:image, and any URL whose host doesn't exactly match siteHost
// once a trailing ":80" is stripped. A relative URL (no host) is always
// in-scope.
func InScope(rawURL, siteHost string) bool {
	if strings.Contains(rawURL, "javascript:") {
		return false
	}
	if strings.Contains(rawURL, "@") {
		return false
	}
	if strings.Contains(rawURL, "data:image") {
		return false
	}
	if !strings.Contains(rawURL, "http") {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Host
	if host == "" {
		return true
	}
	host = strings.TrimSuffix(host, ":80")
	return host == siteHost
}

// IsBareDomain reports whether the last path segment of rawURL looks like a
// bare domain name (its suffix is a known TLD), per PathMapper step 3.
func IsBareDomain(rawURL string) bool {
	trimmed := strings.TrimRight(rawURL, "/")
	last := path.Base(trimmed)
	idx := strings.LastIndex(last, ".")
	if idx < 0 {
		return false
	}
	return IsDomainSuffix(last[idx+1:])
}
