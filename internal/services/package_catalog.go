package services

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/models"
)

var tierOrder = map[models.Tier]int{
	models.TierFree:      0,
	models.TierPro:       1,
	models.TierUnlimited: 2,
}

// packageCatalog is an immutable in-memory view of the packages table.
type packageCatalog struct {
	byTier  map[models.Tier]models.Package
	ordered []models.Package
}

// NewPackageCatalog builds a catalog from the given packages. Later entries
// for the same tier replace earlier ones.
func NewPackageCatalog(pkgs []models.Package) PackageCataloger {
	byTier := make(map[models.Tier]models.Package, len(pkgs))
	for _, p := range pkgs {
		byTier[p.Tier] = p
	}

	ordered := make([]models.Package, 0, len(byTier))
	for _, p := range byTier {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return tierOrder[ordered[i].Tier] < tierOrder[ordered[j].Tier]
	})

	return &packageCatalog{byTier: byTier, ordered: ordered}
}

// LoadPackageCatalog reads active packages once and fails if the free tier is
// missing, since registration cannot provision without it.
func LoadPackageCatalog(ctx context.Context, db *gorm.DB) (PackageCataloger, error) {
	var pkgs []models.Package
	if err := db.WithContext(ctx).Where("status = ?", "active").Find(&pkgs).Error; err != nil {
		return nil, fmt.Errorf("load package catalog: %w", err)
	}

	catalog := NewPackageCatalog(pkgs)
	if err := RequireTier(catalog, models.TierFree); err != nil {
		return nil, err
	}
	return catalog, nil
}

// RequireTier returns an error if the catalog has no entry for tier.
func RequireTier(catalog PackageCataloger, tier models.Tier) error {
	if _, err := catalog.FindByTier(tier); err != nil {
		return fmt.Errorf("package catalog has no %q tier: %w", tier, err)
	}
	return nil
}

// FindByTier returns a copy of the package for tier.
func (c *packageCatalog) FindByTier(tier models.Tier) (*models.Package, error) {
	p, ok := c.byTier[tier]
	if !ok {
		return nil, apperrors.ErrPackageNotFound
	}
	return &p, nil
}

// List returns all packages ordered free, pro, unlimited.
func (c *packageCatalog) List() []models.Package {
	out := make([]models.Package, len(c.ordered))
	copy(out, c.ordered)
	return out
}
