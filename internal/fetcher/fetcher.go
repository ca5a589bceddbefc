// Package fetcher wraps retryablehttp with the site-mirror specific
// behavior: a shared cookie jar, certificate verification disabled (many
// mirrored sites run expired or self-signed certs), two timeout tiers for
// text vs. binary/media downloads, and a text-decode cascade for sites that
// serve GBK/GB18030 without declaring it.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"unicode/utf8"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/straying-cloud/sitemirror/internal/classifier"
	"github.com/straying-cloud/sitemirror/internal/config"
	"github.com/straying-cloud/sitemirror/internal/validator"
)

// Fetcher performs the two operations a crawl worker needs: FetchText for
// documents that get parsed and rewritten, and DownloadFile for binaries
// that get streamed to disk verbatim.
type Fetcher struct {
	client    *retryablehttp.Client
	userAgent string
	cfg       *config.SiteConfig
	validator validator.ContentValidator
	log       *logrus.Logger
}

const defaultUserAgent = "Mozilla/5.0 (compatible; sitemirror/1.0)"

// New builds a Fetcher from site configuration. log may be nil; the Fetcher
// does not log on its own and reports every failure to its caller as an
// error.
func New(cfg *config.SiteConfig, log *logrus.Logger) *Fetcher {
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.MaxRetries - 1 // cfg.MaxRetries is the total attempt count, not the retry count
	client.Logger = nil
	client.HTTPClient = &http.Client{
		Jar:       jar,
		Transport: transport,
	}

	return &Fetcher{
		client:    client,
		userAgent: defaultUserAgent,
		cfg:       cfg,
		validator: validator.Default(),
		log:       log,
	}
}

// timeoutFor returns a context bounded by the fetch or download timeout
// tier for a URL: media suffixes get the longer download timeout, everything
// else (other binaries included) gets the fetch timeout. The caller must call the
// returned cancel func once the request completes.
func (f *Fetcher) timeoutFor(rawURL string) (context.Context, context.CancelFunc) {
	timeout := f.cfg.FetchTimeout
	if classifier.IsMedia(rawURL) {
		timeout = f.cfg.DownloadTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (f *Fetcher) newRequest(ctx context.Context, rawURL string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	return req, nil
}

// FetchText fetches a document and decodes it to UTF-8 text, trying UTF-8
// first and falling back to GBK for sites that serve Chinese text without
// declaring a charset. The decoded text is always normalized to UTF-8 on
// return; the on-disk copy is written UTF-8 regardless of the source
// encoding.
func (f *Fetcher) FetchText(rawURL string) (string, error) {
	ctx, cancel := f.timeoutFor(rawURL)
	defer cancel()
	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading body of %s: %w", rawURL, err)
	}

	text, ok := decodeCascade(raw)
	if !ok {
		return "", fmt.Errorf("decoding %s: no supported encoding matched", rawURL)
	}
	return text, nil
}

// decodeCascade tries utf-8 as-is first (the common case), then falls back
// to GBK, the GB2312 superset most Chinese-language sites that don't
// declare a charset actually serve. ok is false if neither decodes cleanly.
func decodeCascade(raw []byte) (string, bool) {
	if isValidUTF8(raw) {
		return string(raw), true
	}
	return decodeWith(simplifiedchinese.GBK, raw)
}

func isValidUTF8(raw []byte) bool {
	for i := 0; i < len(raw); {
		r := raw[i]
		switch {
		case r < 0x80:
			i++
		case r&0xE0 == 0xC0:
			if i+1 >= len(raw) || raw[i+1]&0xC0 != 0x80 {
				return false
			}
			i += 2
		case r&0xF0 == 0xE0:
			if i+2 >= len(raw) || raw[i+1]&0xC0 != 0x80 || raw[i+2]&0xC0 != 0x80 {
				return false
			}
			i += 3
		case r&0xF8 == 0xF0:
			if i+3 >= len(raw) || raw[i+1]&0xC0 != 0x80 || raw[i+2]&0xC0 != 0x80 || raw[i+3]&0xC0 != 0x80 {
				return false
			}
			i += 4
		default:
			return false
		}
	}
	return true
}

// decodeWith decodes raw using enc, returning ok=false if it contains bytes
// the encoding can't map (a strong signal the charset guess is wrong). The
// decoder substitutes U+FFFD for such bytes rather than failing, so the
// output is checked for it.
func decodeWith(enc encoding.Encoding, raw []byte) (string, bool) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", false
	}
	text := string(out)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", false
	}
	return text, true
}

// DownloadFile streams rawURL to localPath, unless a copy is already on disk
// and worth keeping: any non-PDF that already exists is left alone, and a
// PDF that already exists is kept only if it passes the content validator.
func (f *Fetcher) DownloadFile(rawURL, localPath string) error {
	if info, err := os.Stat(localPath); err == nil && !info.IsDir() {
		if classifier.Suffix(rawURL) != "pdf" || f.validator.Valid(localPath) {
			return nil
		}
	}

	ctx, cancel := f.timeoutFor(rawURL)
	defer cancel()
	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	if err := os.MkdirAll(parentDir(localPath), 0755); err != nil {
		return fmt.Errorf("creating directories for %s: %w", localPath, err)
	}

	tmp := localPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", localPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, localPath); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmp, localPath, err)
	}
	return nil
}

func parentDir(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[:i]
		}
	}
	return "."
}
