// Package legacy contains one-time data migrations for rows written by
// releases that predate token hashing.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"food-rescue-platform/backend/internal/security"
)

// hexHashPattern matches a SHA-256 hex digest; anything else in a token
// column is a plaintext value from the old release.
const hexHashPattern = `^[0-9a-f]{64}$`

// TokenMigrator backfills hashes for session token columns that still hold
// plaintext values. Run once at startup; already-hashed rows are untouched,
// so rerunning is safe.
type TokenMigrator struct {
	db *sql.DB
}

// NewTokenMigrator returns a TokenMigrator operating on db.
func NewTokenMigrator(db *sql.DB) *TokenMigrator {
	return &TokenMigrator{db: db}
}

// Run rewrites every plaintext token value in sessions to its hash and
// returns the number of rows updated.
func (m *TokenMigrator) Run(ctx context.Context) (int, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, access_token_hash, refresh_token_hash
		 FROM sessions
		 WHERE access_token_hash !~ $1 OR refresh_token_hash !~ $1`, hexHashPattern)
	if err != nil {
		return 0, fmt.Errorf("legacy: select plaintext rows: %w", err)
	}
	defer rows.Close()

	type pending struct {
		id                      string
		accessHash, refreshHash string
	}
	var updates []pending
	for rows.Next() {
		var id, access, refresh string
		if err := rows.Scan(&id, &access, &refresh); err != nil {
			return 0, fmt.Errorf("legacy: scan: %w", err)
		}
		if !security.IsTokenHash(access) {
			access = security.HashToken(access)
		}
		if !security.IsTokenHash(refresh) {
			refresh = security.HashToken(refresh)
		}
		updates = append(updates, pending{id: id, accessHash: access, refreshHash: refresh})
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("legacy: iterate: %w", err)
	}

	migrated := 0
	for _, u := range updates {
		res, err := m.db.ExecContext(ctx,
			`UPDATE sessions SET access_token_hash = $1, refresh_token_hash = $2 WHERE id = $3`,
			u.accessHash, u.refreshHash, u.id)
		if err != nil {
			return migrated, fmt.Errorf("legacy: update session %s: %w", u.id, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			migrated++
		}
	}
	if migrated > 0 {
		log.Printf("legacy: hashed token values for %d session rows", migrated)
	}
	return migrated, nil
}
