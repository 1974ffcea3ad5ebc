package models

import "time"

// Store operating status
const (
	StoreOpen   = "OPEN"
	StoreClosed = "CLOSED"
)

type Store struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PhoneNo        string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"phone_no"`
	StoreName      string    `gorm:"type:varchar(255);not null" json:"store_name"`
	Status         string    `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	PaymentDetails string    `gorm:"type:varchar(255)" json:"payment_details"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}
