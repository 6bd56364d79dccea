package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
)

// OpenAndMigrate opens the database for driver ("sqlite" or "postgres") and
// keeps the schema updated via AutoMigrate.
func OpenAndMigrate(driver, dataSourceName string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case constants.DriverPostgres:
		dialector = postgres.Open(dataSourceName)
	case constants.DriverSQLite, "":
		if err := ensureSQLiteDir(dataSourceName); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dataSourceName)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if db.Dialector.Name() == constants.DriverSQLite {
		// SQLite allows a single writer; one connection serializes write
		// transactions instead of failing them with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(&game.User{}, &game.Deck{}, &game.DeckCard{}, &game.Match{}, &game.Invitation{}, &game.Round{})
	if err != nil {
		return nil, err
	}
	logging.Info("database ready", logging.Fields{constants.LogFieldSource: db.Dialector.Name()})
	return db, nil
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
