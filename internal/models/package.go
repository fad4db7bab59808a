package models

// Unlimited marks a limit with no cap.
const Unlimited = -1

// Package is a subscription catalog entry.
type Package struct {
	Base
	Tier          Tier     `gorm:"size:16;uniqueIndex;not null" json:"package"`
	Name          string   `gorm:"not null" json:"name"`
	LimitCategory int      `gorm:"not null" json:"category"`
	LimitAccount  int      `gorm:"not null" json:"account"`
	LimitIncomes  int      `gorm:"not null" json:"incomes"`
	LimitExpenses int      `gorm:"not null" json:"expenses"`
	Price         int64    `gorm:"not null;default:0" json:"price"`
	DurationDays  int      `gorm:"not null;default:0" json:"duration_days"`
	Features      []string `gorm:"serializer:json" json:"features"`
	Status        string   `gorm:"size:16;not null;default:'active'" json:"status"`
}
