package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
	"gorm.io/gorm"
)

// Compile-time check to ensure Store implements the interface
var _ repositories.Store = (*Store)(nil)

// Store is the gorm-backed embedded datastore.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates every table the service owns.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&models.Account{},
		&models.LedgerRecord{},
		&models.ReferralFact{},
		&models.SupportTicket{},
	)
}

// DB exposes the underlying handle for tests and tooling.
func (s *Store) DB() *gorm.DB { return s.db }

// Repositories returns repositories bound to the root handle.
func (s *Store) Repositories() repositories.Repositories {
	return reposFor(s.db)
}

// Transaction runs fn inside one database transaction.
func (s *Store) Transaction(ctx context.Context, fn repositories.TxFunc) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, reposFor(tx))
	})
}

// Backup snapshots the database with VACUUM INTO.
func (s *Store) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("backup_%s.db", time.Now().UTC().Format("20060102_150405.000")))
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return path, nil
}

// Close releases the connection pool.
func (s *Store) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func reposFor(db *gorm.DB) repositories.Repositories {
	return repositories.Repositories{
		Accounts:  &AccountRepository{db: db},
		Ledger:    &LedgerRepository{db: db},
		Referrals: &ReferralRepository{db: db},
		Tickets:   &SupportTicketRepository{db: db},
	}
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repositories.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", repositories.ErrDuplicate, err)
	default:
		return err
	}
}

// likePattern escapes LIKE wildcards in a user supplied fragment.
func likePattern(fragment string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(fragment) + "%"
}
