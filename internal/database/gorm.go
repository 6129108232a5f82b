package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"secondhand-market/internal/models"
)

// GormDB is the Listing Store's persistence layer.
type GormDB struct {
	db  *gorm.DB
	now func() time.Time
}

func gormConfig(logSQL bool) *gorm.Config {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func NewGormDB(host, port, user, password, dbname string, logSQL bool) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), gormConfig(logSQL))
	if err != nil {
		return nil, err
	}

	return ping(db)
}

func ping(db *gorm.DB) (*GormDB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return NewGormDBFromDB(db), nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{
		db: db,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithClock replaces the timestamp source; tests use it for deterministic ordering.
func (gdb *GormDB) WithClock(now func() time.Time) *GormDB {
	gdb.now = now
	return gdb
}

// Now returns the store's current time.
func (gdb *GormDB) Now() time.Time {
	return gdb.now()
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Listing{},
		&models.ListingImage{},
		&models.ContactRecord{},
		&models.DeleteLog{},
		&models.StatsSnapshot{},
	)
}
