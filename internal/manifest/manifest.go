// Package manifest writes the platform metadata that rides along with the
// generated images: Xcode Contents.json documents, Android adaptive icon
// XML, and the icon list inside the web app manifest.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appIconContentsPath = "ios/App/App/Assets.xcassets/AppIcon.appiconset/Contents.json"
	splashContentsPath  = "ios/App/App/Assets.xcassets/Splash.imageset/Contents.json"

	adaptiveLauncherPath = "android/app/src/main/res/mipmap-anydpi-v26/ic_launcher.xml"
	adaptiveRoundPath    = "android/app/src/main/res/mipmap-anydpi-v26/ic_launcher_round.xml"

	// WebManifestPath is the PWA manifest whose icon list gets rewritten.
	WebManifestPath = "public/manifest.json"
)

type appIconImage struct {
	Size     string `json:"size"`
	Idiom    string `json:"idiom"`
	Filename string `json:"filename"`
	Scale    string `json:"scale"`
}

type splashImage struct {
	Idiom    string `json:"idiom"`
	Filename string `json:"filename"`
	Scale    string `json:"scale"`
}

type contentsInfo struct {
	Version int    `json:"version"`
	Author  string `json:"author"`
}

type appIconContents struct {
	Images []appIconImage `json:"images"`
	Info   contentsInfo   `json:"info"`
}

type splashContents struct {
	Images []splashImage `json:"images"`
	Info   contentsInfo   `json:"info"`
}

type webIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// WriteIOSContents writes the AppIcon and Splash Contents.json documents
// Xcode needs to pick up the regenerated asset sets. It returns the
// project-relative paths it wrote.
func WriteIOSContents(root string) ([]string, error) {
	appIcon := appIconContents{
		Images: []appIconImage{
			// iPhone, all contexts including multitasking.
			{Size: "20x20", Idiom: "iphone", Filename: "AppIcon-20x20@2x.png", Scale: "2x"},
			{Size: "20x20", Idiom: "iphone", Filename: "AppIcon-20x20@3x.png", Scale: "3x"},
			{Size: "29x29", Idiom: "iphone", Filename: "AppIcon-29x29@2x.png", Scale: "2x"},
			{Size: "29x29", Idiom: "iphone", Filename: "AppIcon-29x29@3x.png", Scale: "3x"},
			{Size: "40x40", Idiom: "iphone", Filename: "AppIcon-40x40@2x.png", Scale: "2x"},
			{Size: "40x40", Idiom: "iphone", Filename: "AppIcon-40x40@3x.png", Scale: "3x"},
			{Size: "60x60", Idiom: "iphone", Filename: "AppIcon-60x60@2x.png", Scale: "2x"},
			{Size: "60x60", Idiom: "iphone", Filename: "AppIcon-60x60@3x.png", Scale: "3x"},
			// iPad.
			{Size: "20x20", Idiom: "ipad", Filename: "AppIcon-20x20@1x.png", Scale: "1x"},
			{Size: "20x20", Idiom: "ipad", Filename: "AppIcon-20x20@2x.png", Scale: "2x"},
			{Size: "29x29", Idiom: "ipad", Filename: "AppIcon-29x29@1x.png", Scale: "1x"},
			{Size: "29x29", Idiom: "ipad", Filename: "AppIcon-29x29@2x.png", Scale: "2x"},
			{Size: "40x40", Idiom: "ipad", Filename: "AppIcon-40x40@1x.png", Scale: "1x"},
			{Size: "40x40", Idiom: "ipad", Filename: "AppIcon-40x40@2x.png", Scale: "2x"},
			{Size: "76x76", Idiom: "ipad", Filename: "AppIcon-76x76@1x.png", Scale: "1x"},
			{Size: "76x76", Idiom: "ipad", Filename: "AppIcon-76x76@2x.png", Scale: "2x"},
			{Size: "83.5x83.5", Idiom: "ipad", Filename: "AppIcon-83.5x83.5@2x.png", Scale: "2x"},
			// App Store.
			{Size: "1024x1024", Idiom: "ios-marketing", Filename: "icon-1024x1024.png", Scale: "1x"},
		},
		Info: contentsInfo{Version: 1, Author: "xcode"},
	}

	splash := splashContents{
		Images: []splashImage{
			{Idiom: "universal", Filename: "splash-2732x2732.png", Scale: "1x"},
			{Idiom: "universal", Filename: "splash-1920x1920.png", Scale: "2x"},
			{Idiom: "universal", Filename: "splash-1024x1024.png", Scale: "3x"},
		},
		Info: contentsInfo{Version: 1, Author: "xcode"},
	}

	if err := writeJSONFile(root, appIconContentsPath, appIcon); err != nil {
		return nil, err
	}
	if err := writeJSONFile(root, splashContentsPath, splash); err != nil {
		return nil, err
	}
	return []string{appIconContentsPath, splashContentsPath}, nil
}

// adaptiveIconXML points the launcher at the generated foreground layer and
// a color resource background. Android merges the two at runtime.
const adaptiveIconXML = `<?xml version="1.0" encoding="utf-8"?>
<adaptive-icon xmlns:android="http://schemas.android.com/apk/res/android">
    <background android:drawable="@color/ic_launcher_background"/>
    <foreground android:drawable="@mipmap/ic_launcher_foreground"/>
</adaptive-icon>`

// WriteAdaptiveIconXML writes the adaptive icon descriptors for the regular
// and round launchers. Both point at the same layer pair.
func WriteAdaptiveIconXML(root string) ([]string, error) {
	for _, rel := range []string{adaptiveLauncherPath, adaptiveRoundPath} {
		if err := writeFile(root, rel, []byte(adaptiveIconXML)); err != nil {
			return nil, err
		}
	}
	return []string{adaptiveLauncherPath, adaptiveRoundPath}, nil
}

// UpdateWebManifest rewrites the icons array of public/manifest.json to
// point at the generated PWA icons, preserving every other field. A missing
// manifest is not an error; the caller decides whether to warn. The updated
// return reports whether the file was rewritten.
func UpdateWebManifest(root string) (updated bool, err error) {
	abs := filepath.Join(root, filepath.FromSlash(WebManifestPath))
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read web manifest: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("parse web manifest: %w", err)
	}
	doc["icons"] = []webIcon{
		{Src: "/icons/icon-192x192.png", Sizes: "192x192", Type: "image/png"},
		{Src: "/icons/icon-512x512.png", Sizes: "512x512", Type: "image/png"},
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode web manifest: %w", err)
	}
	if err := os.WriteFile(abs, out, 0o644); err != nil {
		return false, fmt.Errorf("write web manifest: %w", err)
	}
	return true, nil
}

func writeJSONFile(root, rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	return writeFile(root, rel, data)
}

func writeFile(root, rel string, data []byte) error {
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(rel), err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
