package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/YKarmar/ApplicationTracker/internal/models"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

type Options struct {
	Driver       string // sqlite, mysql, postgres
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open 按驱动连接数据库并设置连接池
func Open(opts Options, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "sqlite":
		dialector = sqlite.Open(opts.DSN)
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// sqlite 只用一个连接，避免写锁冲突，同时保证 PRAGMA 对所有语句生效
	if opts.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	} else {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected", zap.String("driver", opts.Driver))

	return New(db, logger), nil
}

func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate 自动建表
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&models.MasterResume{}, &models.Application{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	s.logger.Info("database migrated")
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// 将 gorm 的未找到错误统一为 ErrNotFound
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return err
}
