// Package dbtest opens throwaway in-memory stores for tests.
package dbtest

import (
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"secondhand-market/internal/database"
)

// Clock is a deterministic time source. Every call advances it by Step.
type Clock struct {
	mu   sync.Mutex
	t    time.Time
	Step time.Duration
}

func NewClock(start time.Time) *Clock {
	return &Clock{t: start.UTC(), Step: time.Second}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.Step)
	return c.t
}

// Set moves the clock to t. The next Now returns t plus Step.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t.UTC()
	c.mu.Unlock()
}

// New returns a migrated store backed by a private in-memory SQLite database.
func New(t testing.TB) (*database.GormDB, *Clock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	clock := NewClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	gdb := database.NewGormDBFromDB(db).WithClock(clock.Now)
	require.NoError(t, gdb.InitSchema())
	return gdb, clock
}
