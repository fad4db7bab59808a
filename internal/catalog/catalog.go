// Package catalog embeds the default subscription package catalog used to
// seed the packages table.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"kumoney/internal/models"
)

//go:embed packages.json
var defaultPackages []byte

// Default decodes the embedded package catalog.
func Default() ([]models.Package, error) {
	return Decode(defaultPackages)
}

// Decode parses a JSON package list and checks that tiers are unique and known.
func Decode(data []byte) ([]models.Package, error) {
	var pkgs []models.Package
	if err := json.Unmarshal(data, &pkgs); err != nil {
		return nil, fmt.Errorf("decode package catalog: %w", err)
	}

	seen := make(map[models.Tier]bool, len(pkgs))
	for _, p := range pkgs {
		switch p.Tier {
		case models.TierFree, models.TierPro, models.TierUnlimited:
		default:
			return nil, fmt.Errorf("decode package catalog: unknown tier %q", p.Tier)
		}
		if seen[p.Tier] {
			return nil, fmt.Errorf("decode package catalog: duplicate tier %q", p.Tier)
		}
		seen[p.Tier] = true
	}
	return pkgs, nil
}
