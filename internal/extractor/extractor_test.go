package extractor

import (
	"net/url"
	"strings"
	"testing"

	"github.com/straying-cloud/sitemirror/internal/pathmap"
)

func TestExtractHTML(t *testing.T) {
	text := `<a href="/about.html">x</a><img src='pic.png'><style>body{background:url("bg.png")}</style>`
	got := Extract(text, false)
	want := []string{"/about.html", "pic.png", "bg.png"}
	if len(got) != len(want) {
		t.Fatalf("Extract() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Extract()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractCSSOnly(t *testing.T) {
	text := `.a{background:url('img/a.png')} href="ignored.html"`
	got := Extract(text, true)
	if len(got) != 1 || got[0] != "img/a.png" {
		t.Errorf("Extract(css) = %v", got)
	}
}

func TestNormalizeProtocolRelative(t *testing.T) {
	got := Normalize("//ex.test/a.png", "https://ex.test/")
	if got != "https://ex.test/a.png" {
		t.Errorf("Normalize(protocol-relative) = %q", got)
	}
}

func TestNormalizeLeadingSlash(t *testing.T) {
	got := Normalize("/a/b.html", "http://ex.test/root/page.html")
	if got != "http://ex.test/a/b.html" {
		t.Errorf("Normalize(leading slash) = %q", got)
	}
}

func TestNormalizeMissingSlashes(t *testing.T) {
	if got := Normalize("http:/ex.test/a", "http://ex.test/"); got != "http://ex.test/a" {
		t.Errorf("Normalize(http:/) = %q", got)
	}
	if got := Normalize("http:ex.test/a", "http://ex.test/"); got != "http://ex.test/a" {
		t.Errorf("Normalize(http:) = %q", got)
	}
}

func TestResolveViewer(t *testing.T) {
	referrer, err := url.Parse("http://ex.test/docs/index.html")
	if err != nil {
		t.Fatal(err)
	}
	got := ResolveViewer("viewer.html?file=report.pdf", referrer)
	if got != "http://ex.test/docs/report.pdf" {
		t.Errorf("ResolveViewer() = %q", got)
	}
}

func TestResolveAbsoluteAndFragment(t *testing.T) {
	abs, frag, err := Resolve("page.html#section", "http://ex.test/", "http://ex.test/dir/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if abs != "http://ex.test/dir/page.html" {
		t.Errorf("Resolve abs = %q", abs)
	}
	if frag != "#section" {
		t.Errorf("Resolve frag = %q", frag)
	}
}

func TestDiscoverFiltersOutOfScope(t *testing.T) {
	raw := []string{"a.html", "http://other.test/b.html", "javascript:void(0)"}
	got := Discover(raw, "http://ex.test/", "http://ex.test/dir/index.html", "ex.test")
	if len(got) != 1 || got[0] != "http://ex.test/dir/a.html" {
		t.Errorf("Discover() = %v", got)
	}
}

func TestRewriteReplacesInScopeLink(t *testing.T) {
	mapper := pathmap.New("ex.test-site")
	raw := "http://ex.test/other/page.html"
	text := `<a href="` + raw + `">link</a>`
	got := Rewrite(text, []string{raw}, "http://ex.test/", "http://ex.test/dir/index.html", "ex.test", mapper)
	if strings.Contains(got, raw) {
		t.Errorf("Rewrite() did not replace link: %q", got)
	}
	if !strings.Contains(got, `href="../other/page.html"`) {
		t.Errorf("Rewrite() produced unexpected text: %q", got)
	}
}
