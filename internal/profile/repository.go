package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// RepositoryPort defines data access for profiles, preferences and XP.
type RepositoryPort interface {
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	InsertProfile(ctx context.Context, p UserProfile) (UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, changes ProfileChanges) (UserProfile, error)
	GetExtended(ctx context.Context, userID string) (ExtendedProfile, error)
	UpsertExtended(ctx context.Context, e ExtendedProfile) (ExtendedProfile, error)
	GetXP(ctx context.Context, userID string) (XP, error)
	InsertXP(ctx context.Context, xp XP) (XP, error)
	SaveXP(ctx context.Context, userID string, points int, badges []string) (XP, error)
}

// ProfileChanges is a partial update of the basic identity record.
type ProfileChanges struct {
	FirstName   *string
	LastName    *string
	PhoneNumber *string
}

// Repository provides PostgreSQL backed persistence over the users,
// user_profiles and xp collections.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const profileColumns = `id, COALESCE(email, ''), first_name, last_name,
	COALESCE(phone_number, ''), date_of_birth, is_active, created_at, updated_at`

// GetProfile fetches the users row.
func (r *Repository) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, userID)
	return scanProfile(row)
}

// InsertProfile persists a lazily created profile.
func (r *Repository) InsertProfile(ctx context.Context, p UserProfile) (UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, now(), now())
		RETURNING `+profileColumns,
		p.ID, p.Email, p.FirstName, p.LastName)
	return scanProfile(row)
}

// UpdateProfile applies a partial update and refreshes updated_at.
func (r *Repository) UpdateProfile(ctx context.Context, userID string, changes ProfileChanges) (UserProfile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			phone_number = COALESCE($4, phone_number),
			updated_at = now()
		WHERE id = $1
		RETURNING `+profileColumns,
		userID, changes.FirstName, changes.LastName, changes.PhoneNumber)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserProfile{}, shared.ErrNotFound
		}
		return UserProfile{}, err
	}
	return p, nil
}

const extendedColumns = `id, user_id, notification_preferences, privacy_settings,
	COALESCE(theme_preferences, ''), created_at, updated_at`

// GetExtended fetches the user_profiles row.
func (r *Repository) GetExtended(ctx context.Context, userID string) (ExtendedProfile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+extendedColumns+` FROM user_profiles WHERE user_id = $1`, userID)
	return scanExtended(row)
}

// UpsertExtended writes the preferences record keyed by user id.
func (r *Repository) UpsertExtended(ctx context.Context, e ExtendedProfile) (ExtendedProfile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_profiles (id, user_id, notification_preferences, privacy_settings, theme_preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			notification_preferences = EXCLUDED.notification_preferences,
			privacy_settings = EXCLUDED.privacy_settings,
			theme_preferences = EXCLUDED.theme_preferences,
			updated_at = now()
		RETURNING `+extendedColumns,
		e.ID, e.UserID, e.NotificationPreferences, e.PrivacySettings, e.Theme)
	return scanExtended(row)
}

// GetXP fetches the xp row.
func (r *Repository) GetXP(ctx context.Context, userID string) (XP, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, user_id, points, badges FROM xp WHERE user_id = $1`, userID)
	return scanXP(row)
}

// InsertXP persists a lazily created ledger.
func (r *Repository) InsertXP(ctx context.Context, xp XP) (XP, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO xp (id, user_id, points, badges)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, points, badges`,
		xp.ID, xp.UserID, xp.Points, xp.Badges)
	return scanXP(row)
}

// SaveXP stores the new running total and badge list.
func (r *Repository) SaveXP(ctx context.Context, userID string, points int, badges []string) (XP, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE xp SET points = $2, badges = $3
		WHERE user_id = $1
		RETURNING id, user_id, points, badges`,
		userID, points, badges)
	xp, err := scanXP(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return XP{}, shared.ErrNotFound
		}
		return XP{}, err
	}
	return xp, nil
}

func scanProfile(row pgx.Row) (UserProfile, error) {
	var p UserProfile
	err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName,
		&p.PhoneNumber, &p.DateOfBirth, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserProfile{}, shared.ErrNotFound
		}
		return UserProfile{}, err
	}
	return p, nil
}

func scanExtended(row pgx.Row) (ExtendedProfile, error) {
	var e ExtendedProfile
	err := row.Scan(&e.ID, &e.UserID, &e.NotificationPreferences,
		&e.PrivacySettings, &e.Theme, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ExtendedProfile{}, shared.ErrNotFound
		}
		return ExtendedProfile{}, err
	}
	return e, nil
}

func scanXP(row pgx.Row) (XP, error) {
	var xp XP
	err := row.Scan(&xp.ID, &xp.UserID, &xp.Points, &xp.Badges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return XP{}, shared.ErrNotFound
		}
		return XP{}, err
	}
	return xp, nil
}
