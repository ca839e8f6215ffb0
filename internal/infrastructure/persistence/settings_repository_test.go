package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/domain/shared"
)

func newMockSettingsRepository(t *testing.T) (*GormSettingsRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormSettingsRepository(gormDB), mock, mockDB
}

func TestGormSettingsRepository_Get(t *testing.T) {
	t.Run("returns stored value", func(t *testing.T) {
		repo, mock, mockDB := newMockSettingsRepository(t)
		defer mockDB.Close()

		storeID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "store_id", "key", "value"}).
			AddRow(uuid.New(), storeID, settings.KeyCarrierToken, "tok-123")

		mock.ExpectQuery(`SELECT \* FROM "settings" WHERE store_id = \$1 AND key = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(storeID, settings.KeyCarrierToken, 1).
			WillReturnRows(rows)

		value, err := repo.Get(context.Background(), storeID, settings.KeyCarrierToken)

		assert.NoError(t, err)
		assert.Equal(t, "tok-123", value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing key", func(t *testing.T) {
		repo, mock, mockDB := newMockSettingsRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "settings" WHERE store_id = \$1 AND key = \$2 ORDER BY .* LIMIT .*`).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.Get(context.Background(), uuid.New(), "missing")

		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormSettingsRepository_GetAll(t *testing.T) {
	repo, mock, mockDB := newMockSettingsRepository(t)
	defer mockDB.Close()

	storeID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "store_id", "key", "value"}).
		AddRow(uuid.New(), storeID, settings.KeyCarrierMode, "live").
		AddRow(uuid.New(), storeID, settings.KeyPickupLocation, "Main Warehouse")

	mock.ExpectQuery(`SELECT \* FROM "settings" WHERE store_id = \$1`).
		WithArgs(storeID).
		WillReturnRows(rows)

	all, err := repo.GetAll(context.Background(), storeID)

	assert.NoError(t, err)
	assert.Equal(t, map[string]string{
		settings.KeyCarrierMode:    "live",
		settings.KeyPickupLocation: "Main Warehouse",
	}, all)
	assert.NoError(t, mock.ExpectationsWereMet())
}
