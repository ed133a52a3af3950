package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockImageRepository creates a GormProductImageRepository with a mocked SQL connection
func newMockImageRepository(t *testing.T) (*GormProductImageRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductImageRepository(gormDB), mock, mockDB
}

func TestGormProductImageRepository_FindAll(t *testing.T) {
	t.Run("finds all images in row order", func(t *testing.T) {
		repo, mock, mockDB := newMockImageRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "product_id", "filename", "base64", "is_primary"}).
			AddRow(1, "1000123", "front.jpg", "aGVsbG8=", true).
			AddRow(2, "1000123", "back.jpg", "d29ybGQ=", false)

		mock.ExpectQuery(`SELECT \* FROM "product_images" ORDER BY id ASC`).
			WillReturnRows(rows)

		images, err := repo.FindAll(context.Background())

		assert.NoError(t, err)
		require.Len(t, images, 2)
		assert.Equal(t, "1000123", images[0].ProductID)
		assert.True(t, images[0].IsPrimary)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductImageRepository_FindByProductIDs(t *testing.T) {
	t.Run("finds images for the given products", func(t *testing.T) {
		repo, mock, mockDB := newMockImageRepository(t)
		defer mockDB.Close()

		rows := sqlmock.NewRows([]string{"id", "product_id", "filename", "base64"}).
			AddRow(7, "1000123", "front.jpg", "aGVsbG8=")

		mock.ExpectQuery(`SELECT \* FROM "product_images" WHERE product_id IN \(\$1,\$2\) ORDER BY id ASC`).
			WithArgs("1000123", "1000456").
			WillReturnRows(rows)

		images, err := repo.FindByProductIDs(context.Background(), []string{"1000123", "1000456"})

		assert.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, "front.jpg", images[0].Filename)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty slice for empty id list", func(t *testing.T) {
		repo, _, mockDB := newMockImageRepository(t)
		defer mockDB.Close()

		images, err := repo.FindByProductIDs(context.Background(), []string{})

		assert.NoError(t, err)
		assert.Empty(t, images)
	})
}

func TestGormProductImageRepository_InterfaceCompliance(t *testing.T) {
	t.Run("implements ImageRepository interface", func(t *testing.T) {
		repo, _, mockDB := newMockImageRepository(t)
		defer mockDB.Close()

		var _ catalog.ImageRepository = repo
	})
}
