package models

import "time"

// Order lifecycle statuses. PENDING moves forward through CONFIRMED,
// PREPARING and READY to DELIVERED; CANCELLED is reachable from any
// non-terminal status. DELIVERED and CANCELLED are terminal.
const (
	OrderPending   = "PENDING"
	OrderConfirmed = "CONFIRMED"
	OrderPreparing = "PREPARING"
	OrderReady     = "READY"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

type Order struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	CustomerID uint        `gorm:"not null;index" json:"customer_id"`
	Customer   Customer    `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer"`
	StoreID    uint        `gorm:"not null;index" json:"store_id"`
	Store      Store       `gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"store"`
	TotalPrice float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_price"`
	PaymentID  *string     `gorm:"type:varchar(255)" json:"payment_id,omitempty"`
	OrderOTP   string      `gorm:"type:varchar(4);not null" json:"order_otp"`
	Status     string      `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time   `gorm:"not null" json:"updated_at"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
}

// IsTerminal reports whether the order can no longer change status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderDelivered || o.Status == OrderCancelled
}
