package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/diewo77/invoice-manager/internal/models"
)

func TestFormatInvoiceNumber(t *testing.T) {
	assert.Equal(t, "INV-000001", FormatInvoiceNumber(1))
	assert.Equal(t, "INV-000042", FormatInvoiceNumber(42))
	assert.Equal(t, "INV-1000000", FormatInvoiceNumber(1000000)) // width grows past 6 digits
}

func TestParseInvoiceNumber(t *testing.T) {
	seq, err := ParseInvoiceNumber("INV-000041")
	require.NoError(t, err)
	assert.Equal(t, int64(41), seq)

	for _, bad := range []string{"", "INV-", "INV-abc", "FOO-000001", "INV-000000", "INV--00001"} {
		_, err := ParseInvoiceNumber(bad)
		var nErr *NumberingError
		assert.ErrorAs(t, err, &nErr, "input %q", bad)
	}
}

func TestNextInvoiceNumberSequence(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
	svc := NewInvoiceService(db)

	next, err := NextInvoiceNumber(db)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", next)

	first, err := svc.Create(owner.ID, validInvoiceInput())
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", first.InvoiceNumber)

	second, err := svc.Create(owner.ID, validInvoiceInput())
	require.NoError(t, err)
	assert.Equal(t, "INV-000002", second.InvoiceNumber)
}

func TestNextInvoiceNumberCorruptStore(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com", models.RoleUser)

	inv := models.Invoice{UserID: owner.ID, InvoiceNumber: "GARBAGE-1", SenderName: "x", SenderEmail: "x@x", SenderAddress: "x", CustomerName: "y", CustomerAddress: "y", Status: models.InvoiceStatusDraft}
	require.NoError(t, db.Create(&inv).Error)

	_, err := NextInvoiceNumber(db)
	var nErr *NumberingError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "GARBAGE-1", nErr.Number)

	// A create must fail loudly too, not reissue a colliding number.
	svc := NewInvoiceService(db)
	_, err = svc.Create(owner.ID, validInvoiceInput())
	require.ErrorAs(t, err, &nErr)
}

func TestConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner@example.com", models.RoleUser)
	svc := NewInvoiceService(db)

	const n = 8
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := svc.Create(owner.ID, validInvoiceInput())
			if err != nil && !errors.Is(err, ErrSequenceExhausted) {
				return fmt.Errorf("create: %w", err)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var numbers []string
	require.NoError(t, db.Model(&models.Invoice{}).Pluck("invoice_number", &numbers).Error)
	seen := make(map[string]bool, len(numbers))
	for _, num := range numbers {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
		_, err := ParseInvoiceNumber(num)
		assert.NoError(t, err)
	}
	assert.NotEmpty(t, numbers)
}
