package repositories

import (
	"context"

	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReplyRepository struct {
	DB *pgxpool.Pool
}

func NewReplyRepository(db *pgxpool.Pool) *ReplyRepository {
	return &ReplyRepository{DB: db}
}

const replySelect = `
	SELECT rr.reply_id, rr.review_id, rr.account_id, rr.parent_reply_id, rr.reply_text, rr.created_at,
	       a.account_firstname, a.account_lastname, a.account_type::text
	FROM review_replies rr
	JOIN account a ON a.account_id = rr.account_id`

func scanReply(row pgx.Row) (*models.ReviewReply, error) {
	var rp models.ReviewReply
	err := row.Scan(&rp.ID, &rp.ReviewID, &rp.AccountID, &rp.ParentReplyID, &rp.Text, &rp.CreatedAt,
		&rp.AuthorFirst, &rp.AuthorLast, &rp.AuthorRole)
	if err != nil {
		return nil, translate(err)
	}
	return &rp, nil
}

func (r *ReplyRepository) Create(ctx context.Context, rp *models.ReviewReply) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO review_replies (review_id, account_id, parent_reply_id, reply_text)
		 VALUES ($1, $2, $3, $4)
		 RETURNING reply_id, created_at`,
		rp.ReviewID, rp.AccountID, rp.ParentReplyID, rp.Text,
	).Scan(&rp.ID, &rp.CreatedAt)
	return translate(err)
}

func (r *ReplyRepository) GetByID(ctx context.Context, id int) (*models.ReviewReply, error) {
	return scanReply(r.DB.QueryRow(ctx, replySelect+` WHERE rr.reply_id = $1`, id))
}

// ListByReviews returns every reply for the given reviews, oldest first.
func (r *ReplyRepository) ListByReviews(ctx context.Context, reviewIDs []int) ([]*models.ReviewReply, error) {
	if len(reviewIDs) == 0 {
		return []*models.ReviewReply{}, nil
	}
	rows, err := r.DB.Query(ctx,
		replySelect+` WHERE rr.review_id = ANY($1) ORDER BY rr.created_at, rr.reply_id`, reviewIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	replies := []*models.ReviewReply{}
	for rows.Next() {
		rp, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		replies = append(replies, rp)
	}
	return replies, rows.Err()
}
