package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. Inside
// WithinTx the handle is the transaction, so every repository call made
// through the tx-scoped Store commits or rolls back together.
type Store struct {
	db *gorm.DB

	Users     *UserRepository
	Settings  *SettingsRepository
	Tasks     *TaskRepository
	Sessions  *SessionRepository
	Instances *InstanceRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Users:     NewUserRepository(db),
		Settings:  NewSettingsRepository(db),
		Tasks:     NewTaskRepository(db),
		Sessions:  NewSessionRepository(db),
		Instances: NewInstanceRepository(db),
	}
}

// WithinTx runs fn in a transaction. Returning an error (or panicking) rolls
// back every write made through tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
