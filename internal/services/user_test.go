package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/invoice-manager/internal/models"
)

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(UserInput{Name: "Alice", Email: "alice@example.com", Password: "supersecret", Role: "user"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "supersecret", user.Password, "password must be hashed")

	// Hash verifies through the login path.
	authed, err := svc.Authenticate("alice@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
}

func TestCreateUserValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)

	_, err := svc.Create(UserInput{Email: "bad", Password: "short", Role: "owner"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "required", vErr.Fields["name"])
	assert.Equal(t, "invalid_email", vErr.Fields["email"])
	assert.Equal(t, "too_short", vErr.Fields["password"])
	assert.Equal(t, "invalid_value", vErr.Fields["role"])
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)

	in := UserInput{Name: "Alice", Email: "alice@example.com", Password: "supersecret", Role: "user"}
	_, err := svc.Create(in)
	require.NoError(t, err)

	_, err = svc.Create(in)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "already_taken", vErr.Fields["email"])
}

func TestUpdateUserKeepsPasswordWhenEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)

	user, err := svc.Create(UserInput{Name: "Alice", Email: "alice@example.com", Password: "supersecret", Role: "user"})
	require.NoError(t, err)

	_, err = svc.Update(user, UserInput{Name: "Alice B", Email: "alice@example.com", Role: "admin"})
	require.NoError(t, err)

	authed, err := svc.Authenticate("alice@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, authed.Role)
	assert.Equal(t, "Alice B", authed.Name)
}

func TestDeleteUserCascades(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	victim := createTestUser(t, db, "victim@example.com", models.RoleUser)
	invSvc := NewInvoiceService(db)
	svc := NewUserService(db)

	_, err := invSvc.Create(victim.ID, validInvoiceInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(models.ActorFor(admin), victim))

	var userCount, invCount, itemCount int64
	db.Model(&models.User{}).Where("id = ?", victim.ID).Count(&userCount)
	db.Model(&models.Invoice{}).Count(&invCount)
	db.Model(&models.InvoiceItem{}).Count(&itemCount)
	assert.Zero(t, userCount)
	assert.Zero(t, invCount)
	assert.Zero(t, itemCount)
}

func TestSelfDeleteForbidden(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	svc := NewUserService(db)

	err := svc.Delete(models.ActorFor(admin), admin)
	assert.ErrorIs(t, err, ErrSelfDelete)

	// The account stays.
	var count int64
	db.Model(&models.User{}).Where("id = ?", admin.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db)

	_, err := svc.Create(UserInput{Name: "Alice", Email: "alice@example.com", Password: "supersecret", Role: "user"})
	require.NoError(t, err)

	// Unknown email and wrong password are indistinguishable.
	_, err = svc.Authenticate("nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Authenticate("alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserListCountsInvoices(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice@example.com", models.RoleUser)
	createTestUser(t, db, "bob@example.com", models.RoleUser)
	invSvc := NewInvoiceService(db)
	svc := NewUserService(db)

	for i := 0; i < 3; i++ {
		_, err := invSvc.Create(alice.ID, validInvoiceInput())
		require.NoError(t, err)
	}

	page, err := svc.List(1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	counts := map[string]int64{}
	for _, item := range page.Items {
		counts[item.Email] = item.InvoiceCount
	}
	assert.Equal(t, int64(3), counts["alice@example.com"])
	assert.Equal(t, int64(0), counts["bob@example.com"])
}
