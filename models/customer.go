package models

import (
	"time"
)

type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PhoneNo   string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"phone_no"`
	Email     *string   `gorm:"type:varchar(255);uniqueIndex" json:"email,omitempty"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Course    *string   `gorm:"type:varchar(255)" json:"course,omitempty"`
	College   *string   `gorm:"type:varchar(255)" json:"college,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
