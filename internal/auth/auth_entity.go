package auth

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email            string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Password         string    `gorm:"type:varchar(255);not null"`
	FullName         string    `gorm:"type:varchar(255)"`
	CompanyName      string    `gorm:"type:varchar(255)"`
	Role             string    `gorm:"type:varchar(32);default:user"`
	FaceLabel        *string   `gorm:"type:varchar(255);uniqueIndex"`
	FaceLoginEnabled bool      `gorm:"default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (User) TableName() string {
	return "users"
}
