package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/envutil"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

// Pool is the explicitly constructed postgres handle. It is built once at
// startup and injected; nothing in the tree holds a package-level DB.
type Pool struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPool(log *logger.Logger) (*Pool, error) {
	if log == nil {
		return nil, fmt.Errorf("db: logger required")
	}

	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "sejmwatch")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("db: enable uuid-ossp: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("db: unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(envutil.Int("POSTGRES_MAX_OPEN_CONNS", 25))
	sqlDB.SetMaxIdleConns(envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5))

	return &Pool{db: gdb, log: log.With("service", "PostgresPool")}, nil
}

func (p *Pool) AutoMigrateAll() error {
	p.log.Info("Auto migrating postgres tables...")
	return p.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Conversation{},
		&types.ConversationMessage{},
		&types.Print{},
	)
}

func (p *Pool) DB() *gorm.DB {
	return p.db
}

func (p *Pool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
