package task

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/gotasks/auth"
	apperrors "github.com/kbukum/gotasks/errors"
	"github.com/kbukum/gotasks/identityclient"
	"github.com/kbukum/gotasks/logger"
	"github.com/kbukum/gotasks/observability"
	"github.com/kbukum/gotasks/validation"
)

// OwnerChecker confirms that a user id names an existing user.
type OwnerChecker interface {
	ConfirmUserExists(ctx context.Context, userID int64) (*identityclient.UserSummary, error)
}

// Service applies the ownership rules to task operations.
type Service struct {
	store  Store
	owners OwnerChecker
	log    *logger.Logger
}

// NewService wires the task service.
func NewService(store Store, owners OwnerChecker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, owners: owners, log: log.WithComponent("task")}
}

// Create stores a new task owned by the caller. The owner is confirmed
// with the identity service first; nothing is written if that fails.
func (s *Service) Create(ctx context.Context, p auth.Principal, req CreateRequest) (task *Task, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTaskCreate,
		attribute.Int64(observability.AttrUserID, p.UserID))
	defer func() { observability.EndSpan(span, err) }()

	req.Title = strings.TrimSpace(req.Title)
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	log := s.log.WithContext(ctx)
	if req.UserID != nil && *req.UserID != p.UserID {
		log.Debug("Ignoring payload owner", map[string]interface{}{
			logger.FieldUserID: p.UserID,
			"payload_user_id":  *req.UserID,
		})
	}

	if _, err := s.owners.ConfirmUserExists(ctx, p.UserID); err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
			return nil, apperrors.Unprocessable("Invalid input: owner does not exist").WithCause(err)
		}
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusTodo
	}
	t := &Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		OwnerUserID: p.UserID,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}

	observability.SetSpanAttribute(ctx, observability.AttrTaskID, t.ID)
	log.Info("Task created", map[string]interface{}{
		logger.FieldUserID: p.UserID,
		logger.FieldTaskID: t.ID,
	})
	return t, nil
}

// List returns the caller's tasks. userID, when set, must be the caller.
func (s *Service) List(ctx context.Context, p auth.Principal, userID *int64, status string) ([]Task, error) {
	if userID != nil && *userID != p.UserID {
		s.log.WithContext(ctx).Warn("Task list denied", map[string]interface{}{
			logger.FieldUserID: p.UserID,
			"target_user_id":   *userID,
		})
		return nil, apperrors.Forbidden("Forbidden: You can only list your own tasks")
	}
	st, err := ParseStatus(status)
	if err != nil {
		return nil, apperrors.InvalidInput("status", err.Error())
	}
	return s.store.List(ctx, p.UserID, st)
}

// Get returns task id if the caller owns it.
func (s *Service) Get(ctx context.Context, p auth.Principal, id int64) (*Task, error) {
	return s.owned(ctx, p, id)
}

// Update applies the non-nil fields of req to a task the caller owns.
func (s *Service) Update(ctx context.Context, p auth.Principal, id int64, req UpdateRequest) (*Task, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}

	t, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return t, nil
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if err := s.store.Update(ctx, t); err != nil {
		return nil, s.storeError(err, id)
	}
	return t, nil
}

// Delete removes a task the caller owns.
func (s *Service) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.storeError(err, id)
	}
	s.log.WithContext(ctx).Info("Task deleted", map[string]interface{}{
		logger.FieldUserID: p.UserID,
		logger.FieldTaskID: id,
	})
	return nil
}

// owned loads task id and checks that p owns it. Missing tasks are 404,
// foreign tasks 403.
func (s *Service) owned(ctx context.Context, p auth.Principal, id int64) (*Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.storeError(err, id)
	}
	if t.OwnerUserID != p.UserID {
		s.log.WithContext(ctx).Warn("Task access denied", map[string]interface{}{
			logger.FieldUserID: p.UserID,
			logger.FieldTaskID: id,
		})
		return nil, apperrors.OwnershipViolation("task")
	}
	return t, nil
}

func (s *Service) storeError(err error, id int64) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("task", strconv.FormatInt(id, 10))
	}
	return err
}
