package initializers

import (
	"fmt"
	"log"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectDB opens the Postgres connection used for document and analysis rows.
func ConnectDB(dsn string, debug bool) (*gorm.DB, error) {
	log.Println("Connecting to database")

	if dsn == "" {
		return nil, fmt.Errorf("env variable DIRECT_URL is empty")
	}

	// Configure Postgres driver
	pgConfig := postgres.Config{
		PreferSimpleProtocol: true, // Disable implicit prepared statement usage
		DriverName:           "postgres",
		DSN:                  dsn,
	}

	db, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		PrepareStmt:          false,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	if debug {
		db = db.Debug()
	}

	log.Println("Database connection successful")
	return db, nil
}
