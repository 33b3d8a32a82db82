package task

import (
	"context"
	"errors"

	"github.com/kbukum/gotasks/database"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task: not found")

// Store persists tasks. It performs no authorization.
type Store interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id int64) (*Task, error)
	// List returns the owner's tasks in id order, optionally filtered by status.
	List(ctx context.Context, ownerID int64, status Status) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id int64) error
}

// GormStore is the GORM-backed Store.
type GormStore struct {
	db *database.DB
}

// NewGormStore returns a Store over db.
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, t *Task) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return database.FromDatabase(err, "task")
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id int64) (*Task, error) {
	var t Task
	err := s.db.WithContext(ctx).First(&t, id).Error
	if database.IsNotFoundError(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, database.FromDatabase(err, "task")
	}
	return &t, nil
}

func (s *GormStore) List(ctx context.Context, ownerID int64, status Status) ([]Task, error) {
	q := s.db.WithContext(ctx).Where("owner_user_id = ?", ownerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	tasks := make([]Task, 0)
	if err := q.Order("id").Find(&tasks).Error; err != nil {
		return nil, database.FromDatabase(err, "task")
	}
	return tasks, nil
}

func (s *GormStore) Update(ctx context.Context, t *Task) error {
	res := s.db.WithContext(ctx).Model(t).Select("title", "description", "status", "updated_at").Updates(t)
	if res.Error != nil {
		return database.FromDatabase(res.Error, "task")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&Task{}, id)
	if res.Error != nil {
		return database.FromDatabase(res.Error, "task")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
