package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/invoice-manager/internal/models"
)

const (
	invoiceNumberPrefix = "INV-"
	invoiceNumberDigits = 6
)

// FormatInvoiceNumber renders a sequence value as INV-000001.
func FormatInvoiceNumber(seq int64) string {
	return fmt.Sprintf("%s%0*d", invoiceNumberPrefix, invoiceNumberDigits, seq)
}

// ParseInvoiceNumber extracts the sequence value from a stored number.
// A malformed number yields a NumberingError: failing loudly here beats
// silently reissuing a colliding number.
func ParseInvoiceNumber(number string) (int64, error) {
	suffix, ok := strings.CutPrefix(number, invoiceNumberPrefix)
	if !ok {
		return 0, &NumberingError{Number: number}
	}
	seq, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil || seq < 1 {
		return 0, &NumberingError{Number: number}
	}
	return seq, nil
}

// NextInvoiceNumber derives the next sequential number from the most recently
// created invoice. The read itself is racy under concurrent creates; the
// unique index on invoice_number is the actual serialization point, and the
// aggregate service retries the whole transaction on a duplicate key.
func NextInvoiceNumber(tx *gorm.DB) (string, error) {
	var last models.Invoice
	err := tx.Select("invoice_number").Order("id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FormatInvoiceNumber(1), nil
	}
	if err != nil {
		return "", err
	}
	seq, err := ParseInvoiceNumber(last.InvoiceNumber)
	if err != nil {
		return "", err
	}
	return FormatInvoiceNumber(seq + 1), nil
}
