package pathmap

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []string{
		"http://ex.test/a+b",
		"http://ex.test/a b",
		"http://ex.test/q?x=1&y=2",
		"http://ex.test/plain/path.html",
	}
	for _, in := range tests {
		encoded := EncodeLink(in)
		decoded := DecodeLink(encoded)
		unescaped, err := url.QueryUnescape(decoded)
		if err != nil {
			t.Fatalf("unescape(%q): %v", decoded, err)
		}
		if unescaped != in {
			t.Errorf("round trip failed: in=%q encoded=%q decoded=%q got=%q", in, encoded, decoded, unescaped)
		}
	}
}

func TestMapTrailingSlash(t *testing.T) {
	m := New("ex.test-site")
	got := m.Map("http://ex.test/")
	want := filepath.ToSlash(filepath.Join("ex.test-site", "ex.test", "index.html"))
	if got != want {
		t.Errorf("Map(root) = %q, want %q", got, want)
	}
}

func TestMapNoSuffixGetsHTML(t *testing.T) {
	m := New("ex.test-site")
	got := m.Map("http://ex.test/about")
	want := filepath.ToSlash(filepath.Join("ex.test-site", "ex.test", "about.html"))
	if got != want {
		t.Errorf("Map(about) = %q, want %q", got, want)
	}
}

func TestMapBinarySuffixKept(t *testing.T) {
	m := New("ex.test-site")
	got := m.Map("http://ex.test/a.png")
	want := filepath.ToSlash(filepath.Join("ex.test-site", "ex.test", "a.png"))
	if got != want {
		t.Errorf("Map(a.png) = %q, want %q", got, want)
	}
}

func TestMapExistingDirectoryWidens(t *testing.T) {
	tmp := t.TempDir()
	m := New(tmp)

	// "archive.tar" has a dot so it would normally NOT get ".html" appended;
	// pre-create a directory at exactly that mapped path to force step 8's
	// widening to "<dir>/index.html".
	collision := filepath.Join(tmp, "ex.test", "archive.tar")
	if err := os.MkdirAll(collision, 0755); err != nil {
		t.Fatal(err)
	}

	got := m.Map("http://ex.test/archive.tar")
	want := filepath.ToSlash(filepath.Join(tmp, "ex.test", "archive.tar", "index.html"))
	if got != want {
		t.Errorf("Map(archive.tar) = %q, want %q", got, want)
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		referrer string
		target   string
		want     string
	}{
		{"site/a/index.html", "site/a/b.html", "b.html"},
		{"site/a/index.html", "site/c.html", "../c.html"},
		{"site/index.html", "site/a/b.html", "a/b.html"},
	}
	for _, tt := range tests {
		got := RelativePath(tt.referrer, tt.target)
		if got != tt.want {
			t.Errorf("RelativePath(%q, %q) = %q, want %q", tt.referrer, tt.target, got, tt.want)
		}
	}
}

func TestCollapseDotDot(t *testing.T) {
	got := collapseDotDot("a/b/c/../d")
	want := "a/d"
	if got != want {
		t.Errorf("collapseDotDot = %q, want %q", got, want)
	}
}
