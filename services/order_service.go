package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/campuseats/backend/events"
	"github.com/campuseats/backend/models"
	"github.com/campuseats/backend/utils"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrInvalidState    = errors.New("invalid state for this transition")
	ErrInvalidOrderOTP = errors.New("invalid order OTP")
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrBadQuantity     = errors.New("item quantity must be a positive number")
	ErrMenuItemMissing = errors.New("one or more menu items not found")
	ErrStoreNotFound   = errors.New("store not found")
)

// Actor is the authenticated principal acting on an order: exactly one
// of the two roles, carrying the matching entity id.
type Actor struct {
	Role       string
	CustomerID uint
	StoreID    uint
}

func (a Actor) IsCustomer() bool { return a.Role == utils.RoleCustomer }
func (a Actor) IsStore() bool    { return a.Role == utils.RoleStore }

// OwnsAsCustomer reports whether the actor is the customer who placed
// the order.
func (a Actor) OwnsAsCustomer(o *models.Order) bool {
	return a.IsCustomer() && a.CustomerID == o.CustomerID
}

// OwnsAsStore reports whether the actor is the order's target store.
func (a Actor) OwnsAsStore(o *models.Order) bool {
	return a.IsStore() && a.StoreID == o.StoreID
}

// CanView implements the ownership check used on every order read: the
// placing customer and the target store may see the order, nobody else.
func CanView(a Actor, o *models.Order) bool {
	return a.OwnsAsCustomer(o) || a.OwnsAsStore(o)
}

// CanConfirm limits the PENDING -> CONFIRMED entry to the target store.
func CanConfirm(a Actor, o *models.Order) bool {
	return a.OwnsAsStore(o)
}

// CanCancel decides cancellation permission for an owner of the order:
// the customer only while the order is still PENDING, the store at any
// non-terminal state. Terminal orders can never be cancelled.
func CanCancel(a Actor, o *models.Order) bool {
	if o.IsTerminal() {
		return false
	}
	if a.OwnsAsStore(o) {
		return true
	}
	if a.OwnsAsCustomer(o) {
		return o.Status == models.OrderPending
	}
	return false
}

// OrderItemInput is one requested line of a new order.
type OrderItemInput struct {
	MenuItemID uint `json:"menu_item_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required,gt=0"`
}

// OrderService owns order creation and the status state machine. Every
// transition is a single conditional update against the expected prior
// status, so concurrent conflicting transitions on one order cannot
// both succeed.
type OrderService struct {
	db  *gorm.DB
	bus *events.Bus
}

func NewOrderService(db *gorm.DB, bus *events.Bus) *OrderService {
	return &OrderService{db: db, bus: bus}
}

// GetOrder loads an order with its line items, menu items, customer and
// store. Returns ErrOrderNotFound for an unknown id.
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("OrderItems.MenuItem").
		Preload("Customer").
		Preload("Store").
		First(&order, orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// CreateOrder prices the requested items from the current catalog
// snapshot, generates the 4-digit pickup code and writes the order plus
// all line items in one transaction. The client-side total is never
// consulted. On commit a newOrder event is published for the store.
func (s *OrderService) CreateOrder(customerID, storeID uint, paymentID *string, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrBadQuantity
		}
		ids = append(ids, item.MenuItemID)
	}

	var store models.Store
	if err := s.db.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	// One batched lookup for the whole catalog snapshot
	var menuItems []models.MenuItem
	if err := s.db.Where("store_id = ? AND id IN ?", storeID, ids).Find(&menuItems).Error; err != nil {
		return nil, err
	}

	itemsByID := make(map[uint]models.MenuItem, len(menuItems))
	for _, mi := range menuItems {
		itemsByID[mi.ID] = mi
	}

	var total float64
	for _, item := range items {
		mi, ok := itemsByID[item.MenuItemID]
		if !ok {
			return nil, ErrMenuItemMissing
		}
		total += mi.Price * float64(item.Quantity)
	}

	order := models.Order{
		CustomerID: customerID,
		StoreID:    storeID,
		TotalPrice: total,
		PaymentID:  paymentID,
		OrderOTP:   utils.GenerateNumericOTP(4),
		Status:     models.OrderPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range items {
			mi := itemsByID[item.MenuItemID]
			line := models.OrderItem{
				OrderID:    order.ID,
				MenuItemID: mi.ID,
				Quantity:   item.Quantity,
				Price:      mi.Price,
			}
			if err := tx.Create(&line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created, err := s.GetOrder(order.ID)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(events.NewOrderKey(storeID), created)
	return created, nil
}

// VerifyOrder is the OTP path into CONFIRMED: the store submits the
// pickup code the customer relayed. A wrong code leaves the order
// untouched and fires no event.
func (s *OrderService) VerifyOrder(actor Actor, orderID uint, orderOTP string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !CanConfirm(actor, order) {
		return nil, ErrAccessDenied
	}
	if order.OrderOTP != orderOTP {
		return nil, ErrInvalidOrderOTP
	}
	return s.transition(order, models.OrderPending, models.OrderConfirmed)
}

// ConfirmOrder is the direct store-side entry into CONFIRMED, without
// an OTP check.
func (s *OrderService) ConfirmOrder(actor Actor, orderID uint) (*models.Order, error) {
	return s.storeTransition(actor, orderID, models.OrderPending, models.OrderConfirmed)
}

func (s *OrderService) PrepareOrder(actor Actor, orderID uint) (*models.Order, error) {
	return s.storeTransition(actor, orderID, models.OrderConfirmed, models.OrderPreparing)
}

func (s *OrderService) ReadyOrder(actor Actor, orderID uint) (*models.Order, error) {
	return s.storeTransition(actor, orderID, models.OrderPreparing, models.OrderReady)
}

func (s *OrderService) CompleteOrder(actor Actor, orderID uint) (*models.Order, error) {
	return s.storeTransition(actor, orderID, models.OrderReady, models.OrderDelivered)
}

// CancelOrder applies the cancellation rules: owners only, customers
// only while PENDING, never after delivery.
func (s *OrderService) CancelOrder(actor Actor, orderID uint) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, order) {
		return nil, ErrAccessDenied
	}
	if !CanCancel(actor, order) {
		return nil, ErrInvalidState
	}
	return s.transition(order, order.Status, models.OrderCancelled)
}

func (s *OrderService) storeTransition(actor Actor, orderID uint, from, to string) (*models.Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnsAsStore(order) {
		return nil, ErrAccessDenied
	}
	return s.transition(order, from, to)
}

// transition performs the atomic conditional status update. A zero
// affected-row count means the order moved since it was read (or never
// was in the expected state); the caller lost the race and nothing is
// mutated or published.
func (s *OrderService) transition(order *models.Order, from, to string) (*models.Order, error) {
	res := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidState
	}

	order.Status = to

	update := events.StatusUpdate{OrderID: order.ID, Status: to}
	s.bus.Publish(events.OrderUpdateKey(order.ID), update)
	s.bus.Publish(events.StoreUpdateKey(order.StoreID), update)

	return order, nil
}
