package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVehiclesMigrationContainsSchemas(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_vehicles.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no vehicles migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS vehicles",
		"CREATE TABLE IF NOT EXISTS vehicle_history",
		"CREATE TABLE IF NOT EXISTS vehicle_photos",
		"vin                 varchar(17) NOT NULL",
		"REFERENCES vehicles(id) ON DELETE CASCADE",
		"CHECK (mileage >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_vin",
		"CREATE INDEX IF NOT EXISTS idx_vehicles_status",
		"DROP TABLE IF EXISTS vehicles",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
