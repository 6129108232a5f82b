package database

import (
	"fmt"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewPostgresDB opens the store on PostgreSQL through the lib/pq database/sql driver.
func NewPostgresDB(host, port, user, password, dbname, sslmode string, logSQL bool) (*GormDB, error) {
	if sslmode == "" {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		host, port, user, password, dbname, sslmode)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	}), gormConfig(logSQL))
	if err != nil {
		return nil, err
	}

	return ping(db)
}
