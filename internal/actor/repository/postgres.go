package repository

import (
	"context"
	"database/sql"
	"errors"

	"food-rescue-platform/backend/internal/actor/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an actor repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const actorColumns = `id, email, password_hash, name, surname, role, last_login_at, created_at`

// GetByEmail returns the actor with the given email (case-insensitive), or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Actor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE LOWER(email) = LOWER($1)`, email)
	return scanActor(row)
}

// GetByID returns the actor for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Actor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
	return scanActor(row)
}

// Create inserts the actor and its optional user-type association in one
// transaction. The actor's ID is filled from the insert.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Actor, userType *domain.UserType) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO actors (email, password_hash, name, surname, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		a.Email, a.PasswordHash, a.Name, nullString(a.Surname), a.Role,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return err
	}

	if userType != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO user_types (type, address, phone, email)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (type) DO UPDATE
			   SET address = COALESCE(EXCLUDED.address, user_types.address),
			       phone   = COALESCE(EXCLUDED.phone, user_types.phone),
			       email   = COALESCE(EXCLUDED.email, user_types.email)`,
			userType.Type, nullString(userType.Address), nullString(userType.Phone), nullString(userType.Email))
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO actor_user_types (actor_id, user_type_id)
			 SELECT $1, ut.id FROM user_types ut WHERE ut.type = $2
			 ON CONFLICT DO NOTHING`,
			a.ID, userType.Type)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TouchLastLogin stamps the actor's last-login time to the current instant.
func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE actors SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// UpdatePassword replaces the actor's stored password hash.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE actors SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	return err
}

// UserTypeFor returns the actor's secondary classification, or "" when none exists.
func (r *PostgresRepository) UserTypeFor(ctx context.Context, actorID int64) (string, error) {
	var t string
	err := r.db.QueryRowContext(ctx,
		`SELECT ut.type
		   FROM user_types ut
		   JOIN actor_user_types aut ON ut.id = aut.user_type_id
		  WHERE aut.actor_id = $1
		  ORDER BY aut.started_at DESC
		  LIMIT 1`, actorID).Scan(&t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return t, nil
}

// PhoneFor returns the phone on the actor's most recent user-type
// association, or "" when no association or phone exists.
func (r *PostgresRepository) PhoneFor(ctx context.Context, actorID int64) (string, error) {
	var phone sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT ut.phone
		   FROM user_types ut
		   JOIN actor_user_types aut ON ut.id = aut.user_type_id
		  WHERE aut.actor_id = $1
		  ORDER BY aut.started_at DESC
		  LIMIT 1`, actorID).Scan(&phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	if !phone.Valid {
		return "", nil
	}
	return phone.String, nil
}

func scanActor(row *sql.Row) (*domain.Actor, error) {
	var a domain.Actor
	var surname sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Name, &surname, &a.Role, &lastLogin, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if surname.Valid {
		a.Surname = surname.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		a.LastLoginAt = &t
	}
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
