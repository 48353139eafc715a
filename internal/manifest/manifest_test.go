package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readFile(t *testing.T, root, rel string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return data
}

func TestWriteIOSContents(t *testing.T) {
	root := t.TempDir()

	written, err := WriteIOSContents(root)
	if err != nil {
		t.Fatalf("WriteIOSContents: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 written paths, got %d", len(written))
	}

	appIconRaw := readFile(t, root, "ios/App/App/Assets.xcassets/AppIcon.appiconset/Contents.json")
	var appIcon struct {
		Images []map[string]any `json:"images"`
		Info   struct {
			Version int    `json:"version"`
			Author  string `json:"author"`
		} `json:"info"`
	}
	if err := json.Unmarshal(appIconRaw, &appIcon); err != nil {
		t.Fatalf("parse AppIcon contents: %v", err)
	}
	if len(appIcon.Images) != 18 {
		t.Fatalf("expected 18 AppIcon images, got %d", len(appIcon.Images))
	}
	if appIcon.Info.Version != 1 || appIcon.Info.Author != "xcode" {
		t.Fatalf("unexpected info block: %+v", appIcon.Info)
	}

	first := appIcon.Images[0]
	if first["size"] != "20x20" || first["idiom"] != "iphone" || first["scale"] != "2x" {
		t.Fatalf("unexpected first image: %v", first)
	}
	last := appIcon.Images[17]
	if last["idiom"] != "ios-marketing" || last["filename"] != "icon-1024x1024.png" {
		t.Fatalf("unexpected marketing image: %v", last)
	}

	splashRaw := readFile(t, root, "ios/App/App/Assets.xcassets/Splash.imageset/Contents.json")
	var splash struct {
		Images []map[string]any `json:"images"`
	}
	if err := json.Unmarshal(splashRaw, &splash); err != nil {
		t.Fatalf("parse Splash contents: %v", err)
	}
	if len(splash.Images) != 3 {
		t.Fatalf("expected 3 splash images, got %d", len(splash.Images))
	}
	for _, img := range splash.Images {
		if img["idiom"] != "universal" {
			t.Fatalf("splash images should be universal, got %v", img)
		}
		if _, ok := img["size"]; ok {
			t.Fatalf("splash images carry no size key, got %v", img)
		}
	}
	if splash.Images[1]["filename"] != "splash-1920x1920.png" || splash.Images[1]["scale"] != "2x" {
		t.Fatalf("unexpected 2x splash entry: %v", splash.Images[1])
	}
}

func TestWriteAdaptiveIconXML(t *testing.T) {
	root := t.TempDir()

	written, err := WriteAdaptiveIconXML(root)
	if err != nil {
		t.Fatalf("WriteAdaptiveIconXML: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 written paths, got %d", len(written))
	}

	launcher := readFile(t, root, "android/app/src/main/res/mipmap-anydpi-v26/ic_launcher.xml")
	round := readFile(t, root, "android/app/src/main/res/mipmap-anydpi-v26/ic_launcher_round.xml")
	if string(launcher) != string(round) {
		t.Fatal("launcher and round descriptors should be identical")
	}
	text := string(launcher)
	if !strings.HasPrefix(text, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Fatalf("missing xml declaration: %q", text[:40])
	}
	if !strings.Contains(text, "@mipmap/ic_launcher_foreground") {
		t.Fatal("descriptor should reference the foreground layer")
	}
	if !strings.Contains(text, "@color/ic_launcher_background") {
		t.Fatal("descriptor should reference the background color")
	}
}

func TestUpdateWebManifest(t *testing.T) {
	root := t.TempDir()
	seed := map[string]any{
		"name":        "Example",
		"short_name":  "Ex",
		"theme_color": "#102030",
		"icons": []map[string]string{
			{"src": "/old/icon.png", "sizes": "48x48", "type": "image/png"},
		},
	}
	data, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "public"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "public", "manifest.json"), data, 0o644); err != nil {
		t.Fatalf("seed manifest: %v", err)
	}

	updated, err := UpdateWebManifest(root)
	if err != nil {
		t.Fatalf("UpdateWebManifest: %v", err)
	}
	if !updated {
		t.Fatal("expected the manifest to be rewritten")
	}

	var doc map[string]any
	if err := json.Unmarshal(readFile(t, root, "public/manifest.json"), &doc); err != nil {
		t.Fatalf("parse result: %v", err)
	}
	if doc["name"] != "Example" || doc["theme_color"] != "#102030" {
		t.Fatalf("unrelated fields should survive, got %v", doc)
	}
	icons, ok := doc["icons"].([]any)
	if !ok || len(icons) != 2 {
		t.Fatalf("expected 2 icons, got %v", doc["icons"])
	}
	first, ok := icons[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected icon shape: %v", icons[0])
	}
	if first["src"] != "/icons/icon-192x192.png" || first["sizes"] != "192x192" || first["type"] != "image/png" {
		t.Fatalf("unexpected first icon: %v", first)
	}
}

func TestUpdateWebManifestMissingFile(t *testing.T) {
	root := t.TempDir()

	updated, err := UpdateWebManifest(root)
	if err != nil {
		t.Fatalf("missing manifest should not error, got %v", err)
	}
	if updated {
		t.Fatal("nothing to update without a manifest")
	}
	if _, err := os.Stat(filepath.Join(root, "public", "manifest.json")); !os.IsNotExist(err) {
		t.Fatal("a skipped update should not create the manifest")
	}
}

func TestUpdateWebManifestRejectsBadJSON(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "public"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "public", "manifest.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("seed manifest: %v", err)
	}

	if _, err := UpdateWebManifest(root); err == nil {
		t.Fatal("expected a parse error")
	}
}
