package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/routekit-dev/routekit/internal/config"
	"github.com/routekit-dev/routekit/internal/errors"
	"github.com/routekit-dev/routekit/pkg/assets"
	"github.com/routekit-dev/routekit/pkg/manifest"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Manifest is the generated route manifest.
	Manifest *manifest.Manifest

	// ManifestPath is where routes.json was written.
	ManifestPath string

	// Assets is the generated stylesheet manifest.
	Assets *assets.Manifest

	// AssetsPath is where assets.json was written.
	AssetsPath string
}

// Build generates routes.json and assets.json into the output directory.
func Build(cfg *config.Config) (*Result, error) {
	start := time.Now()

	m, err := Manifest(cfg.Routes)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return nil, errors.Newf(errors.CategoryBuild, "creating output directory").Wrap(err)
	}

	res := &Result{
		Manifest:     m,
		ManifestPath: filepath.Join(cfg.Output, "routes.json"),
	}
	if err := m.Write(res.ManifestPath); err != nil {
		return nil, errors.Newf(errors.CategoryBuild, "writing route manifest").Wrap(err)
	}

	am, err := Fingerprint(cfg.Styles, filepath.Join(cfg.Output, "styles"))
	if err != nil {
		return nil, err
	}
	res.Assets = am
	res.AssetsPath = filepath.Join(cfg.Output, "assets.json")
	if err := am.Write(res.AssetsPath); err != nil {
		return nil, errors.Newf(errors.CategoryBuild, "writing asset manifest").Wrap(err)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Manifest scans the routes directory and assembles the flat route manifest.
//
// A scanned route nests under the route whose dotted name is its longest
// existing prefix; a route whose prefix names no scanned file is a root
// route. Records are added in scan order (sorted by id), so the manifest is
// deterministic for a given tree.
func Manifest(routesDir string) (*manifest.Manifest, error) {
	scanned, err := NewScanner(routesDir).Scan()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]bool, len(scanned))
	for _, r := range scanned {
		byName[r.Name] = true
	}

	m := manifest.New()
	for _, r := range scanned {
		parentID := ""
		if p := r.ParentName(); p != "" && byName[p] {
			parentID = "routes/" + p
		}
		rec := manifest.Record{
			ID:               r.ID,
			Path:             r.Segment,
			ParentID:         parentID,
			Index:            r.Index,
			HasLoader:        r.HasLoader,
			HasAction:        r.HasAction,
			HasCatchBoundary: r.HasCatchBoundary,
			HasErrorBoundary: r.HasErrorBoundary,
			Module:           "routes/" + r.FilePath,
			Imports:          r.Styles,
		}
		if err := m.Add(rec); err != nil {
			return nil, errors.Newf(errors.CategoryBuild, "assembling manifest").Wrap(err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, errors.Newf(errors.CategoryBuild, "invalid route manifest").Wrap(err)
	}
	return m, nil
}

// Fingerprint hashes every stylesheet in stylesDir, copies it to outDir
// under its fingerprinted name, and returns the resulting asset manifest.
// A missing styles directory yields an empty manifest.
func Fingerprint(stylesDir, outDir string) (*assets.Manifest, error) {
	am := assets.NewManifest()

	entries, err := os.ReadDir(stylesDir)
	if os.IsNotExist(err) {
		return am, nil
	}
	if err != nil {
		return nil, errors.Newf(errors.CategoryBuild, "reading styles directory").Wrap(err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, errors.Newf(errors.CategoryBuild, "creating styles output").Wrap(err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".css") {
			continue
		}
		src := filepath.Join(stylesDir, entry.Name())
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.Newf(errors.CategoryBuild, "reading %s", src).Wrap(err)
		}

		sum := sha256.Sum256(data)
		hash := hex.EncodeToString(sum[:])[:8]
		base := strings.TrimSuffix(entry.Name(), ".css")
		fingerprinted := fmt.Sprintf("%s.%s.css", base, hash)

		if err := os.WriteFile(filepath.Join(outDir, fingerprinted), data, 0o644); err != nil {
			return nil, errors.Newf(errors.CategoryBuild, "writing %s", fingerprinted).Wrap(err)
		}
		am.Set(entry.Name(), fingerprinted)
	}
	return am, nil
}
