package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-manager/internal/models"
	"github.com/diewo77/invoice-manager/internal/validation"
)

// numberingRetries bounds how often a create is retried when two requests
// race for the same invoice number.
const numberingRetries = 3

// ItemInput is one submitted line item. Quantity and unit price are the only
// trusted inputs; the line total is always recomputed.
type ItemInput struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// InvoiceInput is the submitted invoice header plus its full item set.
// Dates are YYYY-MM-DD strings and monetary values decimal strings, matching
// what both the JSON API and the HTML forms submit.
type InvoiceInput struct {
	SenderName      string `json:"sender_name"`
	SenderEmail     string `json:"sender_email"`
	SenderPhone     string `json:"sender_phone"`
	SenderAddress   string `json:"sender_address"`
	CustomerName    string `json:"customer_name"`
	CustomerEmail   string `json:"customer_email"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerAddress string `json:"customer_address"`
	InvoiceDate     string `json:"invoice_date"`
	DueDate         string `json:"due_date"`
	TaxRate         string `json:"tax_rate"`
	DiscountRate    string `json:"discount_rate"`
	Notes           string `json:"notes"`
	// Status is only honored on update; empty keeps the previous value.
	Status string      `json:"status"`
	Items  []ItemInput `json:"items"`
}

// parsedInvoice carries the input after validation, with dates, rates and
// prices in their real types.
type parsedInvoice struct {
	invoiceDate  time.Time
	dueDate      time.Time
	taxRate      decimal.Decimal
	discountRate decimal.Decimal
	items        []models.InvoiceItem
	status       models.InvoiceStatus
}

// InvoiceService orchestrates invoice writes: validation, numbering, item
// replacement and totals recomputation, all inside one transaction.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// validate checks every field of the input and returns the parsed values.
// All failing fields are reported together.
func validate(in InvoiceInput, forUpdate bool) (parsedInvoice, validation.Violations) {
	v := make(validation.Violations)
	var p parsedInvoice

	validation.Required("sender_name", in.SenderName, v)
	validation.Required("sender_email", in.SenderEmail, v)
	validation.Email("sender_email", in.SenderEmail, v)
	validation.Required("sender_address", in.SenderAddress, v)
	validation.Required("customer_name", in.CustomerName, v)
	validation.Email("customer_email", in.CustomerEmail, v)
	validation.Required("customer_address", in.CustomerAddress, v)

	p.invoiceDate = validation.Date("invoice_date", in.InvoiceDate, v)
	p.dueDate = validation.Date("due_date", in.DueDate, v)
	validation.DateNotBefore("due_date", p.dueDate, p.invoiceDate, v)

	p.taxRate = parseRate("tax_rate", in.TaxRate, v)
	p.discountRate = parseRate("discount_rate", in.DiscountRate, v)

	if len(in.Items) == 0 {
		v["items"] = "required"
	}
	p.items = make([]models.InvoiceItem, 0, len(in.Items))
	for i, it := range in.Items {
		validation.Required(fmt.Sprintf("items.%d.description", i), it.Description, v)
		validation.MinInt(fmt.Sprintf("items.%d.quantity", i), it.Quantity, 1, v)
		price := parseAmount(fmt.Sprintf("items.%d.unit_price", i), it.UnitPrice, v)
		item := models.InvoiceItem{Description: it.Description, Quantity: it.Quantity, UnitPrice: price}
		item.Total = item.LineTotal()
		p.items = append(p.items, item)
	}

	if forUpdate && in.Status != "" {
		p.status = models.InvoiceStatus(in.Status)
		if !p.status.Valid() {
			v["status"] = "invalid_value"
		}
	}
	return p, v
}

func parseRate(field, value string, v validation.Violations) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		v[field] = "invalid_number"
		return decimal.Zero
	}
	validation.Percentage(field, d, v)
	return d
}

func parseAmount(field, value string, v validation.Violations) decimal.Decimal {
	if value == "" {
		v[field] = "required"
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		v[field] = "invalid_number"
		return decimal.Zero
	}
	validation.NonNegative(field, d, v)
	return d.Round(2)
}

// Create validates the input and persists a new invoice for ownerID. Header,
// items and totals are written in one transaction; the whole transaction is
// retried a bounded number of times when the generated number collides with
// a concurrent create.
func (s *InvoiceService) Create(ownerID uint, in InvoiceInput) (*models.Invoice, error) {
	p, violations := validate(in, false)
	if !violations.Empty() {
		return nil, &ValidationError{Fields: violations}
	}

	for attempt := 0; attempt < numberingRetries; attempt++ {
		created, err := s.createOnce(ownerID, p, in)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	return nil, ErrSequenceExhausted
}

func (s *InvoiceService) createOnce(ownerID uint, p parsedInvoice, in InvoiceInput) (*models.Invoice, error) {
	inv := &models.Invoice{
		UserID:          ownerID,
		SenderName:      in.SenderName,
		SenderEmail:     in.SenderEmail,
		SenderPhone:     in.SenderPhone,
		SenderAddress:   in.SenderAddress,
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		CustomerAddress: in.CustomerAddress,
		InvoiceDate:     p.invoiceDate,
		DueDate:         p.dueDate,
		TaxRate:         p.taxRate,
		DiscountRate:    p.discountRate,
		Notes:           in.Notes,
		Status:          models.InvoiceStatusDraft,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := NextInvoiceNumber(tx)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		items := make([]models.InvoiceItem, len(p.items))
		copy(items, p.items)
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		inv.Items = items
		return applyTotals(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Update validates the input and rewrites the invoice in place. The invoice
// number is immutable; the item set is replaced wholesale
// (delete-all-then-insert) and totals recomputed from the submitted set, all
// in one transaction.
func (s *InvoiceService) Update(inv *models.Invoice, in InvoiceInput) (*models.Invoice, error) {
	p, violations := validate(in, true)
	if !violations.Empty() {
		return nil, &ValidationError{Fields: violations}
	}

	inv.SenderName = in.SenderName
	inv.SenderEmail = in.SenderEmail
	inv.SenderPhone = in.SenderPhone
	inv.SenderAddress = in.SenderAddress
	inv.CustomerName = in.CustomerName
	inv.CustomerEmail = in.CustomerEmail
	inv.CustomerPhone = in.CustomerPhone
	inv.CustomerAddress = in.CustomerAddress
	inv.InvoiceDate = p.invoiceDate
	inv.DueDate = p.dueDate
	inv.TaxRate = p.taxRate
	inv.DiscountRate = p.discountRate
	inv.Notes = in.Notes
	if p.status != "" {
		inv.Status = p.status
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		items := make([]models.InvoiceItem, len(p.items))
		copy(items, p.items)
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		inv.Items = items
		return applyTotals(tx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Delete removes the invoice and all of its items.
func (s *InvoiceService) Delete(inv *models.Invoice) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(inv).Error
	})
}

// applyTotals recomputes the derived fields from inv.Items and persists the
// whole row. Runs inside the caller's transaction so the invoice is never
// visible with stale totals.
func applyTotals(tx *gorm.DB, inv *models.Invoice) error {
	t := CalculateTotals(inv.Items, inv.TaxRate, inv.DiscountRate)
	inv.Subtotal = t.Subtotal
	inv.TaxAmount = t.TaxAmount
	inv.DiscountAmount = t.DiscountAmount
	inv.Total = t.Total
	return tx.Save(inv).Error
}
