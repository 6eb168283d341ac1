package tool

import (
	"time"

	"github.com/uptrace/bun"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers"`

	ID    int64  `bun:"id,pk,autoincrement" json:"id"`
	Name  string `bun:"name,notnull" json:"name"`
	Phone string `bun:"phone" json:"phone,omitempty"`
	Email string `bun:"email" json:"email,omitempty"`
}

type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	Name        string  `bun:"name,notnull" json:"name"`
	Category    string  `bun:"category" json:"category"`
	Price       float64 `bun:"price,notnull" json:"price"`
	Description string  `bun:"description" json:"description"`
	IsAvailable bool    `bun:"is_available,notnull,default:true" json:"is_available"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	CustomerID  int64     `bun:"customer_id,notnull" json:"customer_id"`
	Status      string    `bun:"status,notnull" json:"status"`
	TotalAmount float64   `bun:"total_amount,notnull" json:"total_amount"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID         int64   `bun:"id,pk,autoincrement" json:"id"`
	OrderID    int64   `bun:"order_id,notnull" json:"order_id"`
	MenuItemID int64   `bun:"menu_item_id,notnull" json:"menu_item_id"`
	Quantity   int     `bun:"quantity,notnull" json:"quantity"`
	UnitPrice  float64 `bun:"unit_price,notnull" json:"unit_price"`
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID              int64     `bun:"id,pk,autoincrement" json:"id"`
	CustomerID      int64     `bun:"customer_id,notnull" json:"customer_id"`
	PartySize       int       `bun:"party_size,notnull" json:"party_size"`
	ReservationDate string    `bun:"reservation_date,notnull" json:"reservation_date"`
	ReservationTime string    `bun:"reservation_time,notnull" json:"reservation_time"`
	Status          string    `bun:"status,notnull" json:"status"`
	SpecialRequests string    `bun:"special_requests" json:"special_requests,omitempty"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull" json:"created_at"`
}
