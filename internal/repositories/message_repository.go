package repositories

import (
	"context"

	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	DB *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{DB: db}
}

const messageSelect = `
	SELECT m.message_id, m.sender_id, m.recipient_id, m.subject, m.body, m.is_read,
	       m.created_at, m.updated_at,
	       s.account_firstname, s.account_lastname,
	       r.account_firstname, r.account_lastname
	FROM messages m
	JOIN account s ON s.account_id = m.sender_id
	JOIN account r ON r.account_id = m.recipient_id`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body, &m.IsRead,
		&m.CreatedAt, &m.UpdatedAt,
		&m.SenderFirst, &m.SenderLast,
		&m.RecipientFirst, &m.RecipientLast)
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// Create inserts an unread message and fills the generated columns.
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO messages (sender_id, recipient_id, subject, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING message_id, is_read, created_at, updated_at`,
		m.SenderID, m.RecipientID, m.Subject, m.Body,
	).Scan(&m.ID, &m.IsRead, &m.CreatedAt, &m.UpdatedAt)
	return translate(err)
}

// ListInbox returns messages received by accountID, newest first.
func (r *MessageRepository) ListInbox(ctx context.Context, accountID int) ([]*models.Message, error) {
	return r.list(ctx, messageSelect+` WHERE m.recipient_id = $1 ORDER BY m.created_at DESC, m.message_id DESC`, accountID)
}

// ListOutbox returns messages sent by accountID, newest first.
func (r *MessageRepository) ListOutbox(ctx context.Context, accountID int) ([]*models.Message, error) {
	return r.list(ctx, messageSelect+` WHERE m.sender_id = $1 ORDER BY m.created_at DESC, m.message_id DESC`, accountID)
}

func (r *MessageRepository) CountUnread(ctx context.Context, accountID int) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE recipient_id = $1 AND NOT is_read`, accountID).Scan(&n)
	return n, err
}

func (r *MessageRepository) GetByID(ctx context.Context, id int) (*models.Message, error) {
	return scanMessage(r.DB.QueryRow(ctx, messageSelect+` WHERE m.message_id = $1`, id))
}

// SetRead updates the read flag and returns the stored row.
func (r *MessageRepository) SetRead(ctx context.Context, id int, isRead bool) (*models.Message, error) {
	var m models.Message
	err := r.DB.QueryRow(ctx,
		`UPDATE messages SET is_read = $1, updated_at = NOW()
		 WHERE message_id = $2
		 RETURNING message_id, sender_id, recipient_id, subject, body, is_read, created_at, updated_at`,
		isRead, id,
	).Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Subject, &m.Body, &m.IsRead, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// Delete removes the message. A missing row is not an error.
func (r *MessageRepository) Delete(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM messages WHERE message_id = $1`, id)
	return err
}

func (r *MessageRepository) list(ctx context.Context, sql string, args ...any) ([]*models.Message, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
