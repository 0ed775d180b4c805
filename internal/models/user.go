package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleWorker UserRole = "worker"
)

type User struct {
	ID           uint `gorm:"primaryKey"`
	ShopID       *uint
	Shop         *Shop
	Username     string   `gorm:"size:150;uniqueIndex;not null"`
	Name         string   `gorm:"size:150;not null"`
	Phone        string   `gorm:"size:20"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
