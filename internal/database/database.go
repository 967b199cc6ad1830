package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yukikurage/kanban-board-api/internal/config"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database selected by cfg.DBDriver and stores it as the
// package default.
func Connect(cfg *config.Config) error {
	level := logger.Info
	if cfg.GinMode == "release" {
		level = logger.Warn
	}

	var err error
	if cfg.DBDriver == "sqlite" {
		DB, err = OpenSQLite(cfg.DBName, level)
	} else {
		var dialector gorm.Dialector
		dialector, err = dialectorFor(cfg)
		if err != nil {
			return err
		}
		DB, err = Open(dialector, level)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection established (%s)", cfg.DBDriver)
	return nil
}

// Open opens a GORM handle with unique-constraint violations translated to
// gorm.ErrDuplicatedKey, which the session manager relies on.
func Open(dialector gorm.Dialector, level logger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "", log.LstdFlags),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
		TranslateError: true,
	})
}

// OpenSQLite opens a SQLite database restricted to a single connection so
// that in-memory databases are shared by every query and writers serialize.
func OpenSQLite(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := Open(sqlite.Open(dsn), level)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBName,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			cfg.DBHost,
			cfg.DBPort,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// AllModels lists every table the board owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Container{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskAttachment{},
		&models.Session{},
	}
}

func Migrate() error {
	log.Println("Running database migrations...")
	if err := MigrateDB(DB); err != nil {
		return err
	}
	log.Println("Database migrations completed")
	return nil
}

// MigrateDB migrates the schema of db.
func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return MigrateDatabase(db)
}

func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (used for testing)
func SetDB(db *gorm.DB) {
	DB = db
}
