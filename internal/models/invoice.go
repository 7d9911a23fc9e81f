package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusSent    InvoiceStatus = "sent"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Valid reports whether the status is one of the known values.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// Invoice represents a billing invoice together with its derived totals.
// Implements the Ownable interface for ownership-based authorization.
//
// Monetary fields use decimal values with 2 decimal places; they are always
// recomputed from the items and rates in the same transaction that mutates
// them, never persisted stale.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// InvoiceNumber is the sequential identifier, format INV-000001.
	// The unique index is what serializes concurrent number generation.
	InvoiceNumber string `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`

	// UserID is the owner of this invoice.
	UserID uint  `gorm:"index;not null" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Sender information
	SenderName    string `gorm:"size:255;not null" json:"sender_name"`
	SenderEmail   string `gorm:"size:255;not null" json:"sender_email"`
	SenderPhone   string `gorm:"size:20" json:"sender_phone,omitempty"`
	SenderAddress string `gorm:"type:text;not null" json:"sender_address"`

	// Customer information
	CustomerName    string `gorm:"size:255;not null" json:"customer_name"`
	CustomerEmail   string `gorm:"size:255" json:"customer_email,omitempty"`
	CustomerPhone   string `gorm:"size:20" json:"customer_phone,omitempty"`
	CustomerAddress string `gorm:"type:text;not null" json:"customer_address"`

	// Invoice dates
	InvoiceDate time.Time `gorm:"index;not null" json:"invoice_date"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`

	// Rates are percentages in [0,100].
	TaxRate      decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	DiscountRate decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"discount_rate"`

	// Derived totals. total = subtotal + tax_amount - discount_amount.
	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2)" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);default:0" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2)" json:"total"`

	Notes  string        `gorm:"type:text" json:"notes,omitempty"`
	Status InvoiceStatus `gorm:"size:20;index;not null;default:'draft'" json:"status"`

	// Items are exclusively owned: deleting the invoice deletes them all.
	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// InvoiceItem represents a line item on an invoice.
// Items are replaced wholesale on every invoice update.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`

	// Total is always quantity * unit_price, recomputed on every write and
	// never editable on its own.
	Total decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
}

// LineTotal computes quantity * unit_price for this item.
func (item *InvoiceItem) LineTotal() decimal.Decimal {
	return item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
}
