package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderBuiltinReadout(t *testing.T) {
	r := Default()
	html, err := r.Render("readout", map[string]any{
		"DMS":      `0°10'50.52"S 78°28'4.08"W`,
		"System":   "WGS 84 / UTM zone 17S",
		"EPSG":     "EPSG:32717",
		"Zone":     "17S",
		"Easting":  "781861.46",
		"Northing": "9980007.57",
		"Legacy":   false,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"781861.46 m", "EPSG:32717", "17S", "0°10&#39;50.52&#34;S"} {
		if !strings.Contains(html, want) {
			t.Errorf("readout missing %q:\n%s", want, html)
		}
	}
}

func TestRenderEmptySystemList(t *testing.T) {
	html, err := Default().Render("system-list", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No systems") {
		t.Fatalf("empty state missing:\n%s", html)
	}
}

func TestReloadFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "custom.html"), []byte(`{{define "readout"}}<b>{{.EPSG}}</b>{{end}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	r := Default()
	if err := r.Reload(dir); err != nil {
		t.Fatal(err)
	}
	html, err := r.Render("readout", map[string]string{"EPSG": "EPSG:3116"})
	if err != nil {
		t.Fatal(err)
	}
	if html != "<b>EPSG:3116</b>" {
		t.Fatalf("got %q", html)
	}
	if _, err := r.Render("system-list", nil); err == nil {
		t.Fatal("directory override should replace the built-in fragments")
	}

	if _, err := New(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for a missing fragments directory")
	}
}
