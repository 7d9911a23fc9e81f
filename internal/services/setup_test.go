package services

import (
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/invoice-manager/internal/models"
)

// setupTestDB opens a unique in-memory DB per test name to avoid leakage via
// the shared cache. TranslateError is on, as in production: the numbering
// retry depends on gorm.ErrDuplicatedKey.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		// One connection keeps concurrent sqlite writers from tripping over
		// table locks.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Invoice{}, &models.InvoiceItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	user := &models.User{Name: "Test User", Email: email, Password: string(hash), Role: role}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func validInvoiceInput() InvoiceInput {
	return InvoiceInput{
		SenderName:      "Acme Corp",
		SenderEmail:     "billing@acme.test",
		SenderAddress:   "1 Acme Way",
		CustomerName:    "Client SARL",
		CustomerEmail:   "contact@client.test",
		CustomerAddress: "2 Client Street",
		InvoiceDate:     "2026-01-10",
		DueDate:         "2026-02-10",
		TaxRate:         "10",
		DiscountRate:    "5",
		Items: []ItemInput{
			{Description: "Consulting", Quantity: 2, UnitPrice: "10.00"},
			{Description: "Support", Quantity: 1, UnitPrice: "5.00"},
		},
	}
}
