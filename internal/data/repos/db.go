package repos

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mnemoatlas/atlas-backend/internal/domain"
)

// Open connects to the configured memory store. Local runs use a sqlite
// file; production points at the shared postgres instance.
func Open(mode, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)}
	switch mode {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("repos: unsupported db mode %q", mode)
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.MemoryRecord{})
}
