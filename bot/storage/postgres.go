package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/otpbot/bot/otp"
)

// userRow maps the users table.
type userRow struct {
	ID            int64          `db:"id"`
	FirstName     string         `db:"first_name"`
	LastName      sql.NullString `db:"last_name"`
	Username      sql.NullString `db:"username"`
	RegisteredAt  time.Time      `db:"registered_at"`
	OTPCount      int            `db:"otp_count"`
	VerifiedCount int            `db:"verified_count"`
}

// PostgresStore persists snapshots in a users table for deployments where a
// flat file is not acceptable. Schema is owned by the migrations directory.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load selects every user row.
func (p *PostgresStore) Load() (*otp.Snapshot, error) {
	var rows []userRow
	err := p.db.Select(&rows, `
		SELECT id, first_name, last_name, username, registered_at, otp_count, verified_count
		FROM users`)
	if err != nil {
		return nil, fmt.Errorf("storage: select users: %w", err)
	}

	snap := &otp.Snapshot{Users: make(map[int64]otp.User, len(rows))}
	for _, r := range rows {
		snap.Users[r.ID] = otp.User{
			ID:            r.ID,
			FirstName:     r.FirstName,
			LastName:      r.LastName.String,
			Username:      r.Username.String,
			RegisteredAt:  r.RegisteredAt,
			OTPCount:      r.OTPCount,
			VerifiedCount: r.VerifiedCount,
		}
	}
	return snap, nil
}

// Save upserts every user inside one transaction.
func (p *PostgresStore) Save(snap *otp.Snapshot) error {
	tx, err := p.db.Beginx()
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	const upsert = `
		INSERT INTO users (id, first_name, last_name, username, registered_at, otp_count, verified_count)
		VALUES (:id, :first_name, :last_name, :username, :registered_at, :otp_count, :verified_count)
		ON CONFLICT (id) DO UPDATE SET
			otp_count      = EXCLUDED.otp_count,
			verified_count = EXCLUDED.verified_count`

	for id, u := range snap.Users {
		row := userRow{
			ID:            id,
			FirstName:     u.FirstName,
			LastName:      sql.NullString{String: u.LastName, Valid: u.LastName != ""},
			Username:      sql.NullString{String: u.Username, Valid: u.Username != ""},
			RegisteredAt:  u.RegisteredAt,
			OTPCount:      u.OTPCount,
			VerifiedCount: u.VerifiedCount,
		}
		if _, err := tx.NamedExec(upsert, row); err != nil {
			return fmt.Errorf("storage: upsert user %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit: %w", err)
	}
	return nil
}
