package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// RepositoryPort defines data access methods for linked accounts.
type RepositoryPort interface {
	ListActive(ctx context.Context, userID string) ([]Account, error)
	Insert(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, id, userID string, changes Changes) (Account, error)
	SoftDelete(ctx context.Context, id, userID string) error
	TouchSync(ctx context.Context, id, userID string) error
	TouchSyncForUser(ctx context.Context, userID string) error
	TouchSyncAllActive(ctx context.Context) error
}

// Repository provides PostgreSQL backed persistence.
//
// The bank_accounts table still carries the legacy subtype/account_subtype
// column pair; the alias is resolved here and nowhere else.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, user_id, aggregator_account_id, aggregator_access_token, name, type,
	COALESCE(account_subtype, subtype, ''), balance, institution_name, institution_id,
	COALESCE(mask, ''), is_active, last_synced_at, created_at, updated_at`

// ListActive returns the user's active accounts, newest first.
func (r *Repository) ListActive(ctx context.Context, userID string) ([]Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM bank_accounts
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Insert persists a newly linked account.
func (r *Repository) Insert(ctx context.Context, account Account) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO bank_accounts (
			id, user_id, aggregator_account_id, aggregator_access_token, name, type,
			subtype, account_subtype, balance, institution_name, institution_id, mask,
			is_active, last_synced_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $9, $10, $11, TRUE, now(), now(), now())
		RETURNING `+accountColumns,
		account.ID, account.UserID, account.AggregatorAccountID, account.AccessToken,
		account.Name, account.Type, account.Subtype, account.Balance,
		account.InstitutionName, account.InstitutionID, account.Mask)
	inserted, err := scanAccount(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateAccount
		}
		return Account{}, err
	}
	return inserted, nil
}

// Update applies a partial update and refreshes updated_at.
func (r *Repository) Update(ctx context.Context, id, userID string, changes Changes) (Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE bank_accounts SET
			name = COALESCE($3, name),
			subtype = COALESCE($4, subtype),
			account_subtype = COALESCE($4, account_subtype),
			balance = COALESCE($5, balance),
			mask = COALESCE($6, mask),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+accountColumns,
		id, userID, changes.Name, changes.Subtype, changes.Balance, changes.Mask)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return account, nil
}

// SoftDelete flips is_active off; the row is never removed.
func (r *Repository) SoftDelete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bank_accounts SET is_active = FALSE, updated_at = now()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TouchSync refreshes the sync timestamps for one account.
func (r *Repository) TouchSync(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bank_accounts SET last_synced_at = now(), updated_at = now()
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// TouchSyncForUser refreshes sync timestamps for all of a user's accounts.
func (r *Repository) TouchSyncForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bank_accounts SET last_synced_at = now(), updated_at = now()
		WHERE user_id = $1 AND is_active = TRUE`, userID)
	return err
}

// TouchSyncAllActive refreshes sync timestamps across all users, used by the
// nightly worker job.
func (r *Repository) TouchSyncAllActive(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE bank_accounts SET last_synced_at = now(), updated_at = now()
		WHERE is_active = TRUE`)
	return err
}

func scanAccount(row pgx.Row) (Account, error) {
	var account Account
	err := row.Scan(
		&account.ID, &account.UserID, &account.AggregatorAccountID, &account.AccessToken,
		&account.Name, &account.Type, &account.Subtype, &account.Balance,
		&account.InstitutionName, &account.InstitutionID, &account.Mask,
		&account.IsActive, &account.LastSyncedAt, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	return account, nil
}
