package repository

import (
	"context"

	"github.com/RushikeshTemkar2003/Expert-Talk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, phone, role, category_id, hourly_rate, bio,
	is_available, is_logged_in, total_earnings, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Role,
		&user.CategoryID,
		&user.HourlyRate,
		&user.Bio,
		&user.IsAvailable,
		&user.IsLoggedIn,
		&user.TotalEarnings,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, phone, role, category_id, hourly_rate, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_available, is_logged_in, total_earnings, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Role,
		user.CategoryID,
		user.HourlyRate,
		user.Bio,
	).Scan(
		&user.ID,
		&user.IsAvailable,
		&user.IsLoggedIn,
		&user.TotalEarnings,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) SetAvailability(ctx context.Context, userID int64, available bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_available = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, available)
	return err
}

func (r *UserRepository) SetLoggedIn(ctx context.Context, userID int64, loggedIn bool) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET is_logged_in = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, loggedIn)
	return err
}

func (r *UserRepository) AddEarnings(ctx context.Context, userID int64, amount float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET total_earnings = total_earnings + $2, updated_at = NOW()
		WHERE id = $1
	`, userID, amount)
	return err
}

// ListExperts returns the expert directory, optionally filtered by category.
// Availability in the result is the effective flag: online and accepting.
func (r *UserRepository) ListExperts(ctx context.Context, categoryID *int64) ([]models.ExpertSummary, error) {
	query := `
		SELECT id, name, category_id, hourly_rate, bio, (is_logged_in AND is_available)
		FROM users
		WHERE role = 'expert'
		  AND ($1::bigint IS NULL OR category_id = $1)
		ORDER BY name ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experts := make([]models.ExpertSummary, 0)
	for rows.Next() {
		var expert models.ExpertSummary
		if err := rows.Scan(
			&expert.ID,
			&expert.Name,
			&expert.CategoryID,
			&expert.HourlyRate,
			&expert.Bio,
			&expert.IsAvailable,
		); err != nil {
			return nil, err
		}
		experts = append(experts, expert)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return experts, nil
}
