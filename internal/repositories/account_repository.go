package repositories

import (
	"context"
	"strings"

	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository struct {
	DB *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{DB: db}
}

const accountColumns = `account_id, account_firstname, account_lastname, account_email, account_password,
	account_type::text, COALESCE(totp_secret, ''), totp_enabled, created_at, updated_at, last_login_at`

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.PasswordHash,
		&a.Role, &a.TOTPSecret, &a.TOTPEnabled, &a.CreatedAt, &a.UpdatedAt, &a.LastLoginAt)
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	if a.Role == "" {
		a.Role = models.RoleClient
	}
	err := r.DB.QueryRow(ctx,
		`INSERT INTO account (account_firstname, account_lastname, account_email, account_password, account_type)
		 VALUES ($1, $2, $3, $4, $5::account_type)
		 RETURNING account_id, created_at, updated_at`,
		a.FirstName, a.LastName, strings.ToLower(a.Email), a.PasswordHash, string(a.Role),
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return translate(err)
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (*models.Account, error) {
	return scanAccount(r.DB.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM account WHERE account_id = $1`, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(r.DB.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM account WHERE LOWER(account_email) = LOWER($1)`, email))
}

func (r *AccountRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM account WHERE LOWER(account_email) = LOWER($1))`, email,
	).Scan(&exists)
	return exists, err
}

// UpdateInfo changes name and email and returns the refreshed row.
func (r *AccountRepository) UpdateInfo(ctx context.Context, id int, firstName, lastName, email string) (*models.Account, error) {
	return scanAccount(r.DB.QueryRow(ctx,
		`UPDATE account
		 SET account_firstname = $1, account_lastname = $2, account_email = $3, updated_at = NOW()
		 WHERE account_id = $4
		 RETURNING `+accountColumns,
		firstName, lastName, strings.ToLower(email), id))
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	return r.execOne(ctx,
		`UPDATE account SET account_password = $1, updated_at = NOW() WHERE account_id = $2`, hash, id)
}

func (r *AccountRepository) SetRole(ctx context.Context, id int, role models.Role) error {
	return r.execOne(ctx,
		`UPDATE account SET account_type = $1::account_type, updated_at = NOW() WHERE account_id = $2`, string(role), id)
}

func (r *AccountRepository) RecordLogin(ctx context.Context, id int) error {
	return r.execOne(ctx, `UPDATE account SET last_login_at = NOW() WHERE account_id = $1`, id)
}

// SetTOTPSecret stores the secret during enrolment, before it is confirmed.
func (r *AccountRepository) SetTOTPSecret(ctx context.Context, id int, secret string) error {
	return r.execOne(ctx,
		`UPDATE account SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW() WHERE account_id = $2`,
		secret, id)
}

func (r *AccountRepository) EnableTOTP(ctx context.Context, id int) error {
	return r.execOne(ctx,
		`UPDATE account SET totp_enabled = TRUE, updated_at = NOW() WHERE account_id = $1`, id)
}

func (r *AccountRepository) DisableTOTP(ctx context.Context, id int) error {
	return r.execOne(ctx,
		`UPDATE account SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE account_id = $1`, id)
}

// ListByRoles returns recipients in any of the given roles ordered by name.
func (r *AccountRepository) ListByRoles(ctx context.Context, roles []models.Role) ([]models.Recipient, error) {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	rows, err := r.DB.Query(ctx,
		`SELECT account_id, account_firstname, account_lastname, account_type::text
		 FROM account
		 WHERE account_type::text = ANY($1)
		 ORDER BY account_firstname, account_lastname`, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipients := []models.Recipient{}
	for rows.Next() {
		var rc models.Recipient
		if err := rows.Scan(&rc.ID, &rc.FirstName, &rc.LastName, &rc.Role); err != nil {
			return nil, err
		}
		recipients = append(recipients, rc)
	}
	return recipients, rows.Err()
}

// ListAll returns every account for the staff management page.
func (r *AccountRepository) ListAll(ctx context.Context) ([]*models.Account, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+accountColumns+` FROM account ORDER BY account_type, account_firstname, account_lastname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := r.DB.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
