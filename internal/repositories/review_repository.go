package repositories

import (
	"context"

	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	DB *pgxpool.Pool
}

func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{DB: db}
}

const reviewSelect = `
	SELECT r.review_id, r.inv_id, r.account_id, r.rating, r.comment, r.created_at, r.updated_at,
	       a.account_firstname, a.account_lastname, a.account_type::text,
	       i.inv_make, i.inv_model
	FROM reviews r
	JOIN account a ON a.account_id = r.account_id
	JOIN inventory i ON i.inv_id = r.inv_id`

func scanReview(row pgx.Row) (*models.Review, error) {
	var rv models.Review
	err := row.Scan(&rv.ID, &rv.InventoryID, &rv.AccountID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
		&rv.AuthorFirst, &rv.AuthorLast, &rv.AuthorRole,
		&rv.VehicleMake, &rv.VehicleModel)
	if err != nil {
		return nil, translate(err)
	}
	return &rv, nil
}

func (r *ReviewRepository) Create(ctx context.Context, rv *models.Review) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO reviews (inv_id, account_id, rating, comment)
		 VALUES ($1, $2, $3, $4)
		 RETURNING review_id, created_at, updated_at`,
		rv.InventoryID, rv.AccountID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt, &rv.UpdatedAt)
	return translate(err)
}

// ListByInventory returns one page of a vehicle's reviews, newest first.
func (r *ReviewRepository) ListByInventory(ctx context.Context, invID, limit, offset int) ([]*models.Review, error) {
	return r.list(ctx,
		reviewSelect+` WHERE r.inv_id = $1 ORDER BY r.created_at DESC, r.review_id DESC LIMIT $2 OFFSET $3`,
		invID, limit, offset)
}

func (r *ReviewRepository) CountByInventory(ctx context.Context, invID int) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE inv_id = $1`, invID).Scan(&n)
	return n, err
}

// Summary returns the average rounded to two decimals. No reviews yields zero.
func (r *ReviewRepository) Summary(ctx context.Context, invID int) (models.RatingSummary, error) {
	var s models.RatingSummary
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0)::float8, COUNT(*)
		 FROM reviews WHERE inv_id = $1`, invID,
	).Scan(&s.Average, &s.Count)
	return s, err
}

func (r *ReviewRepository) GetByID(ctx context.Context, id int) (*models.Review, error) {
	return scanReview(r.DB.QueryRow(ctx, reviewSelect+` WHERE r.review_id = $1`, id))
}

func (r *ReviewRepository) ListByAccount(ctx context.Context, accountID int) ([]*models.Review, error) {
	return r.list(ctx, reviewSelect+` WHERE r.account_id = $1 ORDER BY r.created_at DESC`, accountID)
}

func (r *ReviewRepository) Update(ctx context.Context, id, rating int, comment string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE reviews SET rating = $1, comment = $2, updated_at = NOW() WHERE review_id = $3`,
		rating, comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the review; its replies go with it through the cascade.
func (r *ReviewRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM reviews WHERE review_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) list(ctx context.Context, sql string, args ...any) ([]*models.Review, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*models.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
