package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"food-rescue-platform/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const sessionColumns = `id, actor_id, access_token_hash, refresh_token_hash,
	access_expires_at, refresh_expires_at, device_info, ip_address,
	created_at, revoked, revoked_at`

// Create persists the session to the database. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions
		   (id, actor_id, access_token_hash, refresh_token_hash,
		    access_expires_at, refresh_expires_at, device_info, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.ActorID, s.AccessTokenHash, s.RefreshTokenHash,
		s.AccessExpiresAt, s.RefreshExpiresAt,
		nullString(s.DeviceInfo), nullString(s.IPAddress), s.CreatedAt)
	return err
}

// GetActiveByRefreshValue returns the live session whose stored refresh value
// equals hash or raw, or nil if not found. The raw arm matches legacy rows
// created before refresh tokens were hashed at rest.
func (r *PostgresRepository) GetActiveByRefreshValue(ctx context.Context, hash, raw string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		   FROM sessions
		  WHERE refresh_token_hash IN ($1, $2)
		    AND refresh_expires_at > NOW()
		    AND revoked = FALSE`,
		hash, raw)
	return scanSession(row)
}

// RotateTokens is the sole mutator of a live session's token fields. The
// WHERE clause re-checks the refresh value validated by the caller so that
// of two concurrent rotations only one can succeed; the loser observes
// zero affected rows and must treat its freshly issued tokens as void.
func (r *PostgresRepository) RotateTokens(ctx context.Context, sessionID, prevRefreshValue, accessHash, refreshHash string, accessExp, refreshExp time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		    SET access_token_hash = $1,
		        refresh_token_hash = $2,
		        access_expires_at = $3,
		        refresh_expires_at = $4
		  WHERE id = $5
		    AND refresh_token_hash = $6
		    AND revoked = FALSE`,
		accessHash, refreshHash, accessExp, refreshExp, sessionID, prevRefreshValue)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindActiveByAccessValue returns the live session for the access token,
// checked against the revocation registry as well: a tombstone for the
// token's hash or jti blocks the match even if the row itself still says
// revoked = FALSE.
func (r *PostgresRepository) FindActiveByAccessValue(ctx context.Context, hash, raw, jti string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		   FROM sessions s
		  WHERE s.access_token_hash IN ($1, $2)
		    AND s.access_expires_at > NOW()
		    AND s.revoked = FALSE
		    AND NOT EXISTS (
		      SELECT 1 FROM revoked_tokens tr
		       WHERE tr.token_hash = $1 OR tr.token_hash = $3
		    )`,
		hash, raw, jti)
	return scanSession(row)
}

// RevokeByAccessValue flips the matching non-revoked session to revoked and
// returns the updated row, or nil when nothing matched. The stored access
// value is rewritten to the hash at the same time, so a legacy raw row
// leaves this call uniformly hashed.
func (r *PostgresRepository) RevokeByAccessValue(ctx context.Context, hash, raw string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE sessions
		    SET revoked = TRUE, revoked_at = NOW(), access_token_hash = $1
		  WHERE access_token_hash IN ($1, $2)
		    AND revoked = FALSE
		  RETURNING `+sessionColumns,
		hash, raw)
	return scanSession(row)
}

// RevokeAllByActor revokes every live session of the actor and returns the
// affected tokens. One statement with RETURNING, so the revoked set is
// captured exactly rather than re-derived by a second timestamp-matched query.
func (r *PostgresRepository) RevokeAllByActor(ctx context.Context, actorID int64) ([]domain.RevokedToken, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE sessions
		    SET revoked = TRUE, revoked_at = NOW()
		  WHERE actor_id = $1
		    AND revoked = FALSE
		  RETURNING id, access_token_hash, access_expires_at`,
		actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RevokedToken
	for rows.Next() {
		var t domain.RevokedToken
		if err := rows.Scan(&t.SessionID, &t.AccessTokenHash, &t.AccessExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetByIDAndActor returns the session only when it belongs to the actor, or nil.
func (r *PostgresRepository) GetByIDAndActor(ctx context.Context, id string, actorID int64) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 AND actor_id = $2`,
		id, actorID)
	return scanSession(row)
}

// RevokeByID marks the session with the given id as revoked.
func (r *PostgresRepository) RevokeByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked = TRUE, revoked_at = NOW() WHERE id = $1`, id)
	return err
}

// ListActiveByActor returns the actor's live sessions, newest first.
func (r *PostgresRepository) ListActiveByActor(ctx context.Context, actorID int64) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+`
		   FROM sessions
		  WHERE actor_id = $1
		    AND revoked = FALSE
		    AND refresh_expires_at > NOW()
		  ORDER BY created_at DESC`,
		actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpgradeAccessHash rewrites a legacy raw access value to its hash.
func (r *PostgresRepository) UpgradeAccessHash(ctx context.Context, sessionID, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET access_token_hash = $1 WHERE id = $2`, hash, sessionID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*domain.Session, error) {
	var s domain.Session
	var device, ip sql.NullString
	var revokedAt sql.NullTime
	err := sc.Scan(&s.ID, &s.ActorID, &s.AccessTokenHash, &s.RefreshTokenHash,
		&s.AccessExpiresAt, &s.RefreshExpiresAt, &device, &ip,
		&s.CreatedAt, &s.Revoked, &revokedAt)
	if err != nil {
		return nil, err
	}
	if device.Valid {
		s.DeviceInfo = device.String
	}
	if ip.Valid {
		s.IPAddress = ip.String
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return &s, nil
}

func scanSession(row *sql.Row) (*domain.Session, error) {
	s, err := scanInto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func scanSessionRows(rows *sql.Rows) (*domain.Session, error) {
	return scanInto(rows)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
