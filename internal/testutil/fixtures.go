package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kumoney/internal/catalog"
	"kumoney/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of users made by CreateTestUser.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// SeedPackages inserts the embedded default package catalog.
func SeedPackages(t *testing.T, db *gorm.DB) []models.Package {
	t.Helper()

	pkgs, err := catalog.Default()
	if err != nil {
		t.Fatalf("failed to decode default catalog: %v", err)
	}
	if err := db.Create(&pkgs).Error; err != nil {
		t.Fatalf("failed to seed packages: %v", err)
	}
	return pkgs
}

// CreateTestUser creates a verified password user with a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a verified password user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.NewCredentialUser(email, "Test User", string(hash))
	user.Verified = true
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUnverifiedUser creates a password user holding a pending
// verification token that expires at expiresAt.
func CreateUnverifiedUser(t *testing.T, db *gorm.DB, token string, expiresAt time.Time) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := models.NewCredentialUser(fmt.Sprintf("pending%d@test.com", nextID()), "Pending User", string(hash))
	user.SetVerificationToken(token, expiresAt)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create unverified user: %v", err)
	}
	return user
}

// CreateTestOAuthUser creates a verified Google account without a password.
func CreateTestOAuthUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := models.NewOAuthUser(fmt.Sprintf("oauth%d@test.com", nextID()), "OAuth User", models.ProviderGoogle)
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create oauth user: %v", err)
	}
	return user
}

// CountSubscriptions returns how many subscriptions userID owns.
func CountSubscriptions(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.Subscription{}).Where("owner_id = ?", userID).Count(&n).Error; err != nil {
		t.Fatalf("failed to count subscriptions: %v", err)
	}
	return n
}
