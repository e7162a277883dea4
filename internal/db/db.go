package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hollowbyte/subtext-backend/internal/platform/envutil"
	"github.com/hollowbyte/subtext-backend/internal/platform/logger"
	"github.com/hollowbyte/subtext-backend/internal/types"
)

type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the progress store. DB_DRIVER=sqlite gives a local file store;
// anything else connects to Postgres from the usual env set.
func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	var (
		conn *gorm.DB
		err  error
	)
	if envutil.Str("DB_DRIVER", "postgres") == "sqlite" {
		path := envutil.Str("SQLITE_PATH", "subtext.db")
		conn, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	} else {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			envutil.Str("POSTGRES_USER", "postgres"),
			envutil.Str("POSTGRES_PASSWORD", ""),
			envutil.Str("POSTGRES_HOST", "localhost"),
			envutil.Str("POSTGRES_PORT", "5432"),
			envutil.Str("POSTGRES_NAME", "subtext"),
		)
		conn, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		serviceLog.Error("failed to open progress store", "error", err)
		return nil, fmt.Errorf("open progress store: %w", err)
	}

	return &Service{db: conn, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("migrating progress tables")
	return s.db.AutoMigrate(&types.UserProgress{})
}

func (s *Service) DB() *gorm.DB { return s.db }
