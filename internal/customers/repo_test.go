package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oventura/traderow-backend/internal/tenant"
	"github.com/oventura/traderow-backend/pkg/db/models"
	pkgerrors "github.com/oventura/traderow-backend/pkg/errors"
)

func setupCustomersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	customers := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	addresses := `
CREATE TABLE IF NOT EXISTS addresses (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  line1 TEXT NOT NULL,
  line2 TEXT,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  postal_code TEXT NOT NULL,
  country TEXT NOT NULL DEFAULT 'US',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(customers).Error)
	require.NoError(t, db.Exec(addresses).Error)
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, companyID uuid.UUID) (*models.Customer, *models.Address) {
	t.Helper()

	customer := &models.Customer{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
	}
	require.NoError(t, db.Create(customer).Error)

	address := &models.Address{
		ID:         uuid.New(),
		CompanyID:  companyID,
		CustomerID: customer.ID,
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
	require.NoError(t, db.Create(address).Error)
	return customer, address
}

func TestGetCustomer_ScopedLookup(t *testing.T) {
	db := setupCustomersTestDB(t)
	companyID := uuid.New()
	customer, _ := seedCustomer(t, db, companyID)
	repo := NewRepository(db)

	got, err := repo.GetCustomer(context.Background(), tenant.ForCompany(companyID), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)

	_, err = repo.GetCustomer(context.Background(), tenant.ForCompany(uuid.New()), customer.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestGetAddress_RequiresMatchingCustomer(t *testing.T) {
	db := setupCustomersTestDB(t)
	companyID := uuid.New()
	customer, address := seedCustomer(t, db, companyID)
	repo := NewRepository(db)
	scope := tenant.ForCompany(companyID)

	got, err := repo.GetAddress(context.Background(), scope, customer.ID, address.ID)
	require.NoError(t, err)
	assert.Equal(t, address.ID, got.ID)

	_, err = repo.GetAddress(context.Background(), scope, uuid.New(), address.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestGetCustomer_SuperAdmin(t *testing.T) {
	db := setupCustomersTestDB(t)
	customer, _ := seedCustomer(t, db, uuid.New())
	repo := NewRepository(db)

	got, err := repo.GetCustomer(context.Background(), tenant.SuperAdmin(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.ID, got.ID)
}
