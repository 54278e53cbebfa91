package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/StorefrontGo/internal/domain"
	"github.com/utafrali/StorefrontGo/pkg/database"
	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

func newProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewProductRepository(mock), mock
}

func sampleProduct() *domain.Product {
	return &domain.Product{
		ID:          "11111111-1111-1111-1111-111111111111",
		Name:        "Premium Laptop",
		Slug:        "premium-laptop",
		Description: "High-performance laptop",
		Price:       129999,
		IsActive:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestProductRepository_Create_Success(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, p.Price, p.IsActive, p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateIfAbsent_Inserted(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, p.Price, p.IsActive, p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := repo.CreateIfAbsent(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_CreateIfAbsent_AlreadyPresent(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()

	mock.ExpectExec("INSERT INTO products").
		WithArgs(p.ID, p.Name, p.Slug, p.Description, p.Price, p.IsActive, p.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := repo.CreateIfAbsent(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_Found(t *testing.T) {
	repo, mock := newProductRepo(t)

	p := sampleProduct()

	rows := pgxmock.NewRows([]string{"id", "name", "slug", "description", "price", "is_active", "created_at"}).
		AddRow(p.ID, p.Name, p.Slug, p.Description, p.Price, p.IsActive, p.CreatedAt)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(p.ID).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newProductRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "slug", "description", "price", "is_active", "created_at"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_ListActive(t *testing.T) {
	repo, mock := newProductRepo(t)

	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := pgxmock.NewRows([]string{"id", "name", "slug", "description", "price", "is_active", "created_at"}).
		AddRow("id-1", "Premium Laptop", "premium-laptop", "", int64(129999), true, now).
		AddRow("id-2", "Wireless Headphones", "wireless-headphones", "", int64(24999), true, now).
		AddRow("id-3", "Smart Watch", "smart-watch", "", int64(39999), true, now)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(3).
		WillReturnRows(rows)

	products, err := repo.ListActive(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "premium-laptop", products[0].Slug)
	assert.Equal(t, int64(39999), products[2].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}
