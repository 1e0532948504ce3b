package database

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Options struct {
	Driver   string // postgres or mysql
	URL      string // full DSN, wins over the discrete fields
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	LogSQL   bool
}

// Connect opens a pooled connection for the configured driver.
func Connect(opts Options) (*gorm.DB, error) {
	dialector, err := Dialector(opts)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	if opts.LogSQL {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// Close releases the underlying pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Dialector(opts Options) (gorm.Dialector, error) {
	dsn, err := DSN(opts)
	if err != nil {
		return nil, err
	}
	if opts.Driver == "mysql" {
		return mysql.Open(dsn), nil
	}
	return postgres.Open(dsn), nil
}

// DSN builds the driver specific connection string.
func DSN(opts Options) (string, error) {
	if opts.URL != "" {
		return opts.URL, nil
	}

	switch opts.Driver {
	case "", "postgres":
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			opts.Host, opts.User, opts.Password, opts.Name, opts.Port,
		), nil
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			opts.User, opts.Password, opts.Host, opts.Port, opts.Name,
		), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}
