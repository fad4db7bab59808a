package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "kumoney/internal/errors"
	"kumoney/internal/logger"
	"kumoney/internal/models"
)

// defaultSubscriptionTerm is how long the free subscription lasts.
const defaultSubscriptionTerm = 100

// subscriptionService provisions default entitlements from the package catalog.
type subscriptionService struct {
	db      *gorm.DB
	catalog PackageCataloger
	now     func() time.Time
}

// NewSubscriptionService creates a new SubscriptionServicer.
func NewSubscriptionService(db *gorm.DB, catalog PackageCataloger) SubscriptionServicer {
	return &subscriptionService{db: db, catalog: catalog, now: time.Now}
}

// CreateDefault creates an active free-tier subscription for user inside tx.
// The free package limits are copied onto the record. Callers must invoke it
// at most once per user; use EnsureDefault when that is not guaranteed.
func (s *subscriptionService) CreateDefault(tx *gorm.DB, user *models.User) (*models.Subscription, error) {
	pkg, err := s.catalog.FindByTier(models.TierFree)
	if err != nil {
		return nil, err
	}

	subscription := &models.Subscription{
		Owner: models.SubscriptionOwner{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
		},
		Tier:          pkg.Tier,
		ExpiredAt:     s.now().AddDate(defaultSubscriptionTerm, 0, 0),
		IsActive:      true,
		LimitCategory: pkg.LimitCategory,
		LimitAccount:  pkg.LimitAccount,
		LimitIncomes:  pkg.LimitIncomes,
		LimitExpenses: pkg.LimitExpenses,
	}

	if err := tx.Create(subscription).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return subscription, nil
}

// EnsureDefault provisions the default subscription only if user owns none.
// The boolean reports whether a subscription was created.
func (s *subscriptionService) EnsureDefault(tx *gorm.DB, user *models.User) (*models.Subscription, bool, error) {
	var existing models.Subscription
	err := tx.Where("owner_id = ?", user.ID).Order("created_at DESC").First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created, err := s.CreateDefault(tx, user)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetActive returns the most recently created active, unexpired subscription.
func (s *subscriptionService) GetActive(ctx context.Context, userID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ? AND expired_at > ?", userID, true, s.now()).
		Order("created_at DESC").
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubscriptionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &subscription, nil
}

// ReconcileMissing provisions a default subscription for every user that has
// none. It returns the number of subscriptions created.
func (s *subscriptionService) ReconcileMissing(ctx context.Context) (int, error) {
	var orphans []models.User
	err := s.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM subscriptions WHERE subscriptions.owner_id = users.id)").
		Find(&orphans).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	created := 0
	for i := range orphans {
		user := &orphans[i]
		var made bool
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			_, made, err = s.EnsureDefault(tx, user)
			return err
		})
		if err != nil {
			return created, err
		}
		if made {
			created++
			logger.Get().Infow("provisioned missing subscription", "user_id", user.ID)
		}
	}

	return created, nil
}
