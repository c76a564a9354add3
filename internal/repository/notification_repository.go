package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/food-rescue-api/internal/models"
)

// NotificationRepository persists workflow notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// InsertNotifications writes the batch atomically.
func (r *NotificationRepository) InsertNotifications(ctx context.Context, notifications []models.Notification) (err error) {
	if len(notifications) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notification tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO notifications (id, title, message, "for", type, donation_id, recipient_id, read, created_at)
	VALUES (:id, :title, :message, :for, :type, :donation_id, :recipient_id, :read, :created_at)`
	now := time.Now().UTC()
	for i := range notifications {
		n := &notifications[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, query, n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit notifications: %w", err)
	}
	return nil
}

func notificationScope(filter models.NotificationFilter, args []interface{}) ([]string, []interface{}) {
	conditions := make([]string, 0, 3)
	if filter.For != "" {
		args = append(args, string(filter.For))
		conditions = append(conditions, fmt.Sprintf(`"for" = $%d`, len(args)))
	}
	if filter.RecipientID != "" {
		args = append(args, filter.RecipientID)
		conditions = append(conditions, fmt.Sprintf("(recipient_id IS NULL OR recipient_id = $%d)", len(args)))
	}
	return conditions, args
}

// List returns notifications for an inbox, newest first.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, title, message, "for", type, donation_id, recipient_id, read, created_at FROM notifications`)

	conditions, args := notificationScope(filter, make([]interface{}, 0, 2))
	if filter.UnreadOnly {
		conditions = append(conditions, "read = FALSE")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read when it falls inside the scope.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, filter models.NotificationFilter) error {
	conditions, args := notificationScope(filter, []interface{}{id})
	conditions = append([]string{"id = $1"}, conditions...)
	query := "UPDATE notifications SET read = TRUE WHERE " + strings.Join(conditions, " AND ")

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check notification rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
