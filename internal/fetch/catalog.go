package fetch

import (
	"fmt"
	"sort"
)

// Default release lines the catalog is built from.
const (
	DefaultPhysiCellVersion = "1.14.2"
	DefaultPhysiBoSSVersion = "v2.2.3"

	physicellRepo = "MathCancer/PhysiCell"
	physibossRepo = "sysbio-curie/PhysiBoSS"
)

// Catalog maps a model name to the base URL its release archives live under.
type Catalog map[string]string

// NewCatalog builds the model catalog for the given release versions.
func NewCatalog(physicellVersion, physibossVersion string) Catalog {
	physicell := releaseURL(physicellRepo, physicellVersion)
	physiboss := releaseURL(physibossRepo, physibossVersion)
	return Catalog{
		"physiboss-tutorial":          physiboss,
		"physiboss-tutorial-invasion": physiboss,
		"physiboss-cell-lines":        physiboss,
		"template_BM":                 physiboss,
		"template":                    physicell,
		"rules":                       physicell,
		"physimess":                   physicell,
		"interaction":                 physicell,
	}
}

// DefaultCatalog builds the catalog for the default release versions.
func DefaultCatalog() Catalog {
	return NewCatalog(DefaultPhysiCellVersion, DefaultPhysiBoSSVersion)
}

func releaseURL(repo, version string) string {
	return fmt.Sprintf("https://github.com/%s/releases/download/%s/", repo, version)
}

// Models returns the catalog's model names, sorted, for usage text.
func (c Catalog) Models() []string {
	models := make([]string, 0, len(c))
	for name := range c {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

// ArchiveName resolves the platform-specific archive filename for a model:
// <model>-<os>.tar.gz with os one of macos, win, linux.
func ArchiveName(model, goos string) (string, error) {
	switch goos {
	case "darwin":
		return model + "-macos.tar.gz", nil
	case "windows":
		return model + "-win.tar.gz", nil
	case "linux":
		return model + "-linux.tar.gz", nil
	}
	return "", fmt.Errorf("unsupported operating system %q", goos)
}

// ResolveURL resolves the full download URL for a model on a platform.
func (c Catalog) ResolveURL(model, goos string) (string, error) {
	base, ok := c[model]
	if !ok {
		return "", fmt.Errorf("unknown model %q (available: %v)", model, c.Models())
	}
	name, err := ArchiveName(model, goos)
	if err != nil {
		return "", err
	}
	return base + name, nil
}
