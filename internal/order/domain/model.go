package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Order struct {
	ID                string          `gorm:"primaryKey;type:varchar(26)"`
	UserID            string          `gorm:"type:varchar(64);not null;index"`
	Currency          string          `gorm:"type:varchar(3);not null"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Items             []OrderItem     `gorm:"foreignKey:OrderID"`
	IsPaid            bool            `gorm:"not null;default:false"`
	PaidAt            *time.Time
	PaymentResult     PaymentResult `gorm:"embedded;embeddedPrefix:payment_"`
	CheckoutSessionID string        `gorm:"type:varchar(255)"`
	CreatedAt         time.Time     `gorm:"not null"`
	UpdatedAt         time.Time     `gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// PaymentResult is written once, together with IsPaid.
type PaymentResult struct {
	Reference  string `gorm:"type:varchar(255)"`
	Status     string `gorm:"type:varchar(64)"`
	UpdateTime *time.Time
	PayerEmail string `gorm:"type:varchar(320)"`
}

type OrderItem struct {
	ID        snowflake.ID    `gorm:"primaryKey;autoIncrement:false"`
	OrderID   string          `gorm:"type:varchar(26);not null;index"`
	Name      string          `gorm:"type:varchar(255);not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Quantity  int             `gorm:"not null"`
	ImageRef  string          `gorm:"type:text"`
}

func (OrderItem) TableName() string { return "order_items" }

type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusDispatched EventStatus = "dispatched"
	EventStatusFailed     EventStatus = "failed"
)

const EventTypeOrderPaid = "order.paid"

// Event is an outbox row written in the same transaction as the state
// change it describes.
type Event struct {
	ID           snowflake.ID   `gorm:"primaryKey;autoIncrement:false"`
	OrderID      string         `gorm:"type:varchar(26);not null;index"`
	Type         string         `gorm:"type:varchar(64);not null"`
	Payload      datatypes.JSON
	Status       EventStatus    `gorm:"type:varchar(16);not null;index"`
	Attempts     int            `gorm:"not null;default:0"`
	LastError    string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"not null"`
	DispatchedAt *time.Time
}

func (Event) TableName() string { return "order_events" }
