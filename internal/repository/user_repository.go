package repository

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"skill-board/internal/database"

	"github.com/google/uuid"
)

// User ids are the platform's own identifiers, not generated here.
type UserRepository interface {
	Exists(ctx context.Context, userID string) (bool, error)
	MergeSkills(ctx context.Context, userID string, skillIDs []uuid.UUID) error
	SkillsOf(ctx context.Context, userID string) ([]uuid.UUID, error)
	HoldersOf(ctx context.Context, skillID uuid.UUID) ([]string, error)
}

type PostgresUserRepository struct {
	db database.DB
}

func NewPostgresUserRepository(db database.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// MergeSkills unions skillIDs into the user's skill set, creating the user
// row if absent. Each insert is ON CONFLICT DO NOTHING, so concurrent merges
// for the same user interleave without losing rows and resubmitting the same
// set is a no-op.
func (r *PostgresUserRepository) MergeSkills(ctx context.Context, userID string, skillIDs []uuid.UUID) error {
	if userID == "" {
		return fmt.Errorf("empty user id")
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		userID,
	); err != nil {
		return err
	}

	// Insert in a fixed order so concurrent merges for the same user acquire
	// row locks in the same sequence and cannot deadlock each other.
	ordered := make([]uuid.UUID, len(skillIDs))
	copy(ordered, skillIDs)
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i][:], ordered[j][:]) < 0
	})

	for _, skillID := range ordered {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_skills (user_id, skill_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, skillID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *PostgresUserRepository) SkillsOf(ctx context.Context, userID string) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx,
		`SELECT skill_id FROM user_skills WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresUserRepository) HoldersOf(ctx context.Context, skillID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM user_skills WHERE skill_id = $1`,
		skillID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
