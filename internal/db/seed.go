package db

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-manager/internal/models"
	"github.com/diewo77/invoice-manager/internal/services"
)

// Seed creates a default admin, a demo user, and a starter invoice for each
// through the regular aggregate service so numbering and totals go through
// the same path as production writes. Idempotent: existing emails are left
// alone.
func Seed(db *gorm.DB) error {
	admin, err := seedUser(db, "Admin User", "admin@example.com", models.RoleAdmin)
	if err != nil {
		return err
	}
	demo, err := seedUser(db, "Demo User", "demo@example.com", models.RoleUser)
	if err != nil {
		return err
	}

	var count int64
	if err := db.Model(&models.Invoice{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	svc := services.NewInvoiceService(db)
	today := time.Now().Format("2006-01-02")
	due := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	for _, owner := range []*models.User{admin, demo} {
		in := services.InvoiceInput{
			SenderName:      owner.Name,
			SenderEmail:     owner.Email,
			SenderAddress:   "1 Example Street\nExample City",
			CustomerName:    "Acme Corp",
			CustomerAddress: "42 Customer Road\nCustomer Town",
			InvoiceDate:     today,
			DueDate:         due,
			TaxRate:         "20",
			DiscountRate:    "0",
			Items: []services.ItemInput{
				{Description: "Consulting", Quantity: 2, UnitPrice: "350.00"},
				{Description: "Support retainer", Quantity: 1, UnitPrice: "120.00"},
			},
		}
		if _, err := svc.Create(owner.ID, in); err != nil {
			return fmt.Errorf("seed invoice for %s: %w", owner.Email, err)
		}
	}
	return nil
}

func seedUser(db *gorm.DB, name, email string, role models.Role) (*models.User, error) {
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		return &existing, nil
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "password"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := models.User{Name: name, Email: email, Password: string(hash), Role: role}
	if err := db.Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
