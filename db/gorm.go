package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"VinylShop/config"
	"VinylShop/logger"
	"VinylShop/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ErrUnsupportedDriver is returned by Open for an unknown DB_DRIVER.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Store 是注入到各组件的数据库句柄，替代全局 GormDB
// Ready is closed once the schema has been synced; components wait on it before use.
type Store struct {
	DB *gorm.DB

	ready     chan struct{}
	readyOnce sync.Once
	readyErr  error
}

// Models lists every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{&model.Album{}, &model.User{}}
}

// Open connects using cfg.DBDriver and configures the connection pool.
func Open(cfg *config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case "mysql", "":
		return OpenMySQL(cfg)
	case "sqlite", "sqlite3":
		return OpenSQLite(cfg.SQLitePath, cfg.DBLogLevel)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.DBDriver)
	}
}

// MySQLDSN builds the DSN through the driver's own config type.
func MySQLDSN(cfg *config.Config) string {
	mc := mysqldriver.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// OpenMySQL 建立 MySQL 连接
func OpenMySQL(cfg *config.Config) (*Store, error) {
	gdb, err := gorm.Open(mysql.Open(MySQLDSN(cfg)), &gorm.Config{
		Logger:                                   NewGormLogger(cfg.DBLogLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	// 获取底层的 sql.DB 并配置连接池
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Connected to MySQL", logger.String("host", cfg.DBHost), logger.String("db", cfg.DBName))
	return newStore(gdb), nil
}

// OpenSQLite opens a SQLite database; path may be ":memory:".
func OpenSQLite(path, logLevel string) (*Store, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         NewGormLogger(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	sqlDB.SetMaxOpenConns(1)

	logger.Info("Opened SQLite database", logger.String("path", path))
	return newStore(gdb), nil
}

func newStore(gdb *gorm.DB) *Store {
	return &Store{DB: gdb, ready: make(chan struct{})}
}

// Sync migrates all models and marks the store ready. The first call's outcome is final.
func (s *Store) Sync(ctx context.Context) error {
	err := s.DB.WithContext(ctx).AutoMigrate(Models()...)
	if err != nil {
		err = fmt.Errorf("failed to auto migrate models: %w", err)
	}
	s.markReady(err)
	if err == nil {
		logger.Info("Models migrated successfully with GORM.")
	}
	return s.readyErr
}

// SyncAsync runs Sync in the background; use Ready or WaitReady to observe completion.
func (s *Store) SyncAsync(ctx context.Context) {
	go func() {
		if err := s.Sync(ctx); err != nil {
			logger.Error("Schema sync failed", logger.ErrorField(err))
		}
	}()
}

func (s *Store) markReady(err error) {
	s.readyOnce.Do(func() {
		s.readyErr = err
		close(s.ready)
	})
}

// Ready is closed after the first Sync finished, successfully or not.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// ReadyErr returns the Sync outcome; nil until Ready is closed.
func (s *Store) ReadyErr() error {
	select {
	case <-s.ready:
		return s.readyErr
	default:
		return nil
	}
}

// WaitReady blocks until Sync finished or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.readyErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
