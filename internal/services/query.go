package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-manager/internal/models"
)

// DefaultPageSize is used when the caller does not ask for a specific size.
const DefaultPageSize = 10

// InvoicePage is one page of the invoice listing.
type InvoicePage struct {
	Items    []models.Invoice `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// InvoiceQuery serves reads. Each call states exactly which related records
// it loads; nothing is fetched lazily.
type InvoiceQuery struct {
	db *gorm.DB
}

func NewInvoiceQuery(db *gorm.DB) *InvoiceQuery {
	return &InvoiceQuery{db: db}
}

// List returns invoices newest-first with their items preloaded. Non-admin
// actors only ever see their own invoices.
func (q *InvoiceQuery) List(actor models.Actor, page, pageSize int) (*InvoicePage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	dbq := q.db.Model(&models.Invoice{})
	if !actor.IsAdmin() {
		dbq = dbq.Where("user_id = ?", actor.ID)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, err
	}
	var invoices []models.Invoice
	err := dbq.Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return &InvoicePage{Items: invoices, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get loads one invoice with its items and owning user. Authorization is the
// caller's job: this deliberately loads before the gate check so a denied
// request can answer 403 rather than 404 (existence is revealed; see the
// handler tests pinning that choice).
func (q *InvoiceQuery) Get(id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := q.db.Preload("Items").Preload("User").First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// NextNumber exposes the upcoming invoice number for the create form.
// Informational only: the number actually assigned is generated inside the
// create transaction and may differ under contention.
func (q *InvoiceQuery) NextNumber() (string, error) {
	return NextInvoiceNumber(q.db)
}
