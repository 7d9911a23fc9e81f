package services

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-manager/internal/models"
	"github.com/diewo77/invoice-manager/internal/validation"
)

// UserInput is the submitted user form. Password is required on create and
// optional on update (empty keeps the current hash).
type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UserListItem is a user row with its invoice count for the admin listing.
type UserListItem struct {
	models.User
	InvoiceCount int64 `json:"invoice_count"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Items    []UserListItem `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// UserService covers the admin-only user management surface. The handlers
// gate every call with the user policy before reaching this code.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func validateUser(in UserInput, forUpdate bool) validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", in.Name, v)
	validation.Required("email", in.Email, v)
	validation.Email("email", in.Email, v)
	if !forUpdate {
		validation.Required("password", in.Password, v)
	}
	if in.Password != "" && len(in.Password) < 8 {
		v["password"] = "too_short"
	}
	validation.OneOf("role", in.Role, []string{string(models.RoleAdmin), string(models.RoleUser)}, v)
	return v
}

// List returns users newest-first with their invoice counts.
func (s *UserService) List(page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	var total int64
	if err := s.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var users []models.User
	err := s.db.Order("created_at DESC, id DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	items := make([]UserListItem, len(users))
	ids := make([]uint, len(users))
	for i, u := range users {
		items[i] = UserListItem{User: u}
		ids[i] = u.ID
	}
	if len(ids) > 0 {
		type row struct {
			UserID uint
			N      int64
		}
		var rows []row
		err = s.db.Model(&models.Invoice{}).
			Select("user_id, COUNT(*) AS n").
			Where("user_id IN ?", ids).
			Group("user_id").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		counts := make(map[uint]int64, len(rows))
		for _, r := range rows {
			counts[r.UserID] = r.N
		}
		for i := range items {
			items[i].InvoiceCount = counts[items[i].ID]
		}
	}
	return &UserPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Get loads one user with their five most recent invoices.
func (s *UserService) Get(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Invoices", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC, id DESC").Limit(5)
	}).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create validates and persists a new user with a hashed password.
func (s *UserService) Create(in UserInput) (*models.User, error) {
	if v := validateUser(in, false); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{Name: in.Name, Email: in.Email, Password: string(hash), Role: models.Role(in.Role)}
	if err := s.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Fields: validation.Violations{"email": "already_taken"}}
		}
		return nil, err
	}
	return user, nil
}

// Update validates and persists changes to an existing user. An empty
// password keeps the current one.
func (s *UserService) Update(user *models.User, in UserInput) (*models.User, error) {
	if v := validateUser(in, true); !v.Empty() {
		return nil, &ValidationError{Fields: v}
	}
	user.Name = in.Name
	user.Email = in.Email
	user.Role = models.Role(in.Role)
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hash)
	}
	if err := s.db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Fields: validation.Violations{"email": "already_taken"}}
		}
		return nil, err
	}
	return user, nil
}

// Delete removes a user together with their invoices and items. Admins may
// not delete their own account; that returns ErrSelfDelete with no mutation.
func (s *UserService) Delete(actor models.Actor, user *models.User) error {
	if actor.ID == user.ID {
		return ErrSelfDelete
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var invoiceIDs []uint
		if err := tx.Model(&models.Invoice{}).Where("user_id = ?", user.ID).Pluck("id", &invoiceIDs).Error; err != nil {
			return err
		}
		if len(invoiceIDs) > 0 {
			if err := tx.Where("invoice_id IN ?", invoiceIDs).Delete(&models.InvoiceItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("user_id = ?", user.ID).Delete(&models.Invoice{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(user).Error
	})
}

// Authenticate checks credentials for the login flow. Returns ErrNotFound on
// unknown email or a password mismatch so callers can't distinguish the two.
func (s *UserService) Authenticate(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrNotFound
	}
	return &user, nil
}
