package refs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRefsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS reference_sequences (
  scope TEXT PRIMARY KEY,
  last_value INTEGER NOT NULL DEFAULT 0,
  updated_at DATETIME
);`).Error)

	t.Cleanup(func() {
		db.Exec("DELETE FROM reference_sequences")
	})
	return db
}

func TestNextFormatsAndIncrements(t *testing.T) {
	db := setupRefsTestDB(t)
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	first, err := Next(db, Receipt, now)
	require.NoError(t, err)
	assert.Equal(t, "RCP-20260823-0001", first)

	second, err := Next(db, Receipt, now)
	require.NoError(t, err)
	assert.Equal(t, "RCP-20260823-0002", second)
}

func TestNextScopesByPeriod(t *testing.T) {
	db := setupRefsTestDB(t)

	aug, err := Next(db, ExpenseReport, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ER-202608-001", aug)

	sep, err := Next(db, ExpenseReport, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "ER-202609-001", sep)
}

func TestNextGlobalSeries(t *testing.T) {
	db := setupRefsTestDB(t)

	emp, err := Next(db, Employee, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "EMP-0001", emp)

	yearly, err := Next(db, Repossession, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "REPO-2026-0001", yearly)
}

func TestNextRequiresTransaction(t *testing.T) {
	_, err := Next(nil, Receipt, time.Now())
	assert.Error(t, err)
}
