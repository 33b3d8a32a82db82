package identity

import (
	"context"
	"errors"

	"github.com/kbukum/gotasks/database"
)

// ErrNotFound is returned by Store lookups that match no user.
var ErrNotFound = errors.New("identity: user not found")

// Store persists credential records.
type Store interface {
	// Create inserts u and sets its ID. A duplicate username or email
	// yields an AlreadyExists AppError naming the field.
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// GormStore is the GORM-backed Store.
type GormStore struct {
	db *database.DB
}

// NewGormStore returns a Store over db.
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, u *User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return database.FromDatabase(err, "user")
	}
	return nil
}

func (s *GormStore) FindByID(ctx context.Context, id int64) (*User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	return s.first(ctx, "username = ?", username)
}

func (s *GormStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username = ?", username)
}

func (s *GormStore) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email = ?", email)
}

func (s *GormStore) first(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if database.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, database.FromDatabase(err, "user")
	}
	return &u, nil
}

func (s *GormStore) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, database.FromDatabase(err, "user")
	}
	return count > 0, nil
}
