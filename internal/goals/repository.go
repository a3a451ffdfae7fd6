package goals

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doughjo-app/doughjo/internal/shared"
)

// RepositoryPort defines data access methods for goals.
type RepositoryPort interface {
	ListByUser(ctx context.Context, userID string) ([]Goal, error)
	Insert(ctx context.Context, goal Goal) (Goal, error)
	Update(ctx context.Context, id, userID string, changes Changes) (Goal, error)
	Delete(ctx context.Context, id, userID string) error
}

// Repository provides PostgreSQL backed persistence.
//
// The goals table carries two historical alias pairs
// (saved_amount/current_amount and deadline/target_date). Both columns of a
// pair are always written together here so the aliases stay consistent; the
// domain type knows only the canonical field.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const goalColumns = `id, user_id, COALESCE(name, ''), COALESCE(description, ''),
	COALESCE(target_amount, 0), COALESCE(current_amount, saved_amount, 0),
	COALESCE(target_date, deadline), COALESCE(goal_type, ''),
	COALESCE(priority_level, 'medium'), COALESCE(status, 'active'),
	created_at, updated_at`

// ListByUser returns the user's goals, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Goal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+goalColumns+`
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var goals []Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return goals, nil
}

// Insert persists a new goal, writing both columns of each alias pair.
func (r *Repository) Insert(ctx context.Context, goal Goal) (Goal, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO goals (
			id, user_id, name, description, target_amount,
			saved_amount, current_amount, deadline, target_date,
			goal_type, priority_level, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $7, $8, $9, $10, now(), now())
		RETURNING `+goalColumns,
		goal.ID, goal.UserID, goal.Name, goal.Description, goal.TargetAmount,
		goal.SavedAmount, goal.TargetDate, goal.GoalType, goal.Priority, goal.Status)
	return scanGoal(row)
}

// Update applies a partial update; alias pairs move in lockstep.
func (r *Repository) Update(ctx context.Context, id, userID string, changes Changes) (Goal, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE goals SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			target_amount = COALESCE($5, target_amount),
			saved_amount = COALESCE($6, saved_amount),
			current_amount = COALESCE($6, current_amount),
			deadline = COALESCE($7, deadline),
			target_date = COALESCE($7, target_date),
			goal_type = COALESCE($8, goal_type),
			priority_level = COALESCE($9, priority_level),
			status = COALESCE($10, status),
			updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING `+goalColumns,
		id, userID, changes.Name, changes.Description, changes.TargetAmount,
		changes.SavedAmount, changes.TargetDate, changes.GoalType,
		changes.Priority, changes.Status)
	goal, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Goal{}, shared.ErrNotFound
		}
		return Goal{}, err
	}
	return goal, nil
}

// Delete removes a goal. Goals are hard-deleted; only bank accounts carry a
// soft-delete flag.
func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanGoal(row pgx.Row) (Goal, error) {
	var goal Goal
	err := row.Scan(
		&goal.ID, &goal.UserID, &goal.Name, &goal.Description,
		&goal.TargetAmount, &goal.SavedAmount, &goal.TargetDate,
		&goal.GoalType, &goal.Priority, &goal.Status,
		&goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return Goal{}, err
	}
	return goal, nil
}
