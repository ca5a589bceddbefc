package fetcher

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"github.com/straying-cloud/sitemirror/internal/config"
)

func testConfig() *config.SiteConfig {
	return &config.SiteConfig{
		MaxRetries:      1,
		FetchTimeout:    5 * time.Second,
		DownloadTimeout: 5 * time.Second,
	}
}

func TestFetchTextUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	f := New(testConfig(), nil)
	text, err := f.FetchText(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if text != "hello world" {
		t.Errorf("FetchText() = %q", text)
	}
}

func TestDecodeCascadeGBK(t *testing.T) {
	original := "你好" // "你好"
	encoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(original))
	if err != nil {
		t.Fatal(err)
	}

	got, ok := decodeCascade(encoded)
	if !ok {
		t.Fatal("decodeCascade(gbk) reported failure")
	}
	if got != original {
		t.Errorf("decodeCascade(gbk) = %q, want %q", got, original)
	}
}

func TestDecodeCascadeFailure(t *testing.T) {
	// Not valid UTF-8 and not a valid GBK byte sequence (0x81 is a lead byte
	// with no following byte).
	_, ok := decodeCascade([]byte{0x81})
	if ok {
		t.Error("expected decodeCascade to report failure for unmatched bytes")
	}
}

func TestDownloadFileSkipsExistingNonPDF(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte("new-data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(dest, []byte("existing-data"), 0644); err != nil {
		t.Fatal(err)
	}

	f := New(testConfig(), nil)
	if err := f.DownloadFile(srv.URL, dest); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("expected existing non-PDF target to be left alone, not re-fetched")
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "existing-data" {
		t.Errorf("existing file was overwritten: %q", data)
	}
}

func TestDownloadFileWritesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("binary-data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "a.bin")

	f := New(testConfig(), nil)
	if err := f.DownloadFile(srv.URL, dest); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "binary-data" {
		t.Errorf("downloaded content = %q", data)
	}
}
