package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/food-rescue-api/internal/dto"
	"github.com/noah-isme/food-rescue-api/internal/models"
	appErrors "github.com/noah-isme/food-rescue-api/pkg/errors"
)

type notificationStore interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string, filter models.NotificationFilter) error
}

// NotificationService serves the per-role notification inbox.
type NotificationService struct {
	repo   notificationStore
	logger *zap.Logger
}

// NewNotificationService constructs the inbox service.
func NewNotificationService(repo notificationStore, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// List returns notifications addressed to the actor: broadcasts to its role
// plus entries naming it as recipient. Admins see every admin notification.
func (s *NotificationService) List(ctx context.Context, query dto.NotificationQuery, actor models.Actor) ([]models.Notification, *models.Pagination, error) {
	filter, err := inboxFilter(actor)
	if err != nil {
		return nil, nil, err
	}
	filter.UnreadOnly = query.UnreadOnly
	filter.Limit = query.Limit
	filter.Offset = query.Offset
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return items, &models.Pagination{Limit: filter.Limit, Offset: filter.Offset, Count: len(items)}, nil
}

// MarkRead flags one of the actor's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string, actor models.Actor) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "notification id is required")
	}
	filter, err := inboxFilter(actor)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, id, filter); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notification")
	}
	return nil
}

func inboxFilter(actor models.Actor) (models.NotificationFilter, error) {
	if actor.UserID == "" {
		return models.NotificationFilter{}, appErrors.ErrUnauthorized
	}
	if !actor.Role.Valid() {
		return models.NotificationFilter{}, appErrors.ErrForbidden
	}
	filter := models.NotificationFilter{For: models.Audience(actor.Role)}
	if actor.Role != models.RoleAdmin {
		filter.RecipientID = actor.UserID
	}
	return filter, nil
}
