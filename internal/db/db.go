package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"famnet-backend/internal/logger"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL DEFAULT '',
            is_online BOOLEAN NOT NULL DEFAULT FALSE,
            email_verified BOOLEAN NOT NULL DEFAULT FALSE,
            last_ip TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
		`CREATE TABLE IF NOT EXISTS friendships (
            id SERIAL PRIMARY KEY,
            from_user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            to_user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            status TEXT NOT NULL DEFAULT 'requested',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_requested_edge
            ON friendships (from_user_id, to_user_id) WHERE status = 'requested';`,
		`CREATE TABLE IF NOT EXISTS families (
            id SERIAL PRIMARY KEY,
            creator_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            invite_code TEXT UNIQUE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
		`CREATE TABLE IF NOT EXISTS family_members (
            id SERIAL PRIMARY KEY,
            family_id INT NOT NULL REFERENCES families(id) ON DELETE CASCADE,
            member_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            relation TEXT NOT NULL DEFAULT 'Unknown',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            UNIQUE (family_id, member_id)
        );`,
		`CREATE TABLE IF NOT EXISTS family_admins (
            family_id INT NOT NULL REFERENCES families(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            PRIMARY KEY (family_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS rooms (
            id SERIAL PRIMARY KEY,
            type TEXT NOT NULL DEFAULT 'private',
            title TEXT,
            description TEXT,
            family_id INT UNIQUE REFERENCES families(id) ON DELETE CASCADE,
            created_by INT REFERENCES users(id) ON DELETE SET NULL,
            private_key TEXT UNIQUE,
            is_archived BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
		`CREATE TABLE IF NOT EXISTS room_participants (
            room_id INT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            PRIMARY KEY (room_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            room_id INT NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
            user_id INT REFERENCES users(id) ON DELETE SET NULL,
            content TEXT NOT NULL DEFAULT '',
            reply_to_id INT REFERENCES messages(id) ON DELETE SET NULL,
            is_edited BOOLEAN NOT NULL DEFAULT FALSE,
            edited_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
		`CREATE TABLE IF NOT EXISTS message_reads (
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            PRIMARY KEY (message_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS message_media (
            id SERIAL PRIMARY KEY,
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            file_key TEXT NOT NULL,
            byte_size BIGINT NOT NULL DEFAULT 0,
            extension TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS video_calls (
            id SERIAL PRIMARY KEY,
            room_id INT NOT NULL UNIQUE REFERENCES rooms(id) ON DELETE CASCADE,
            status TEXT NOT NULL DEFAULT 'ongoing',
            created_by INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            ended_at TIMESTAMPTZ
        );`,
		`CREATE TABLE IF NOT EXISTS video_call_participants (
            call_id INT NOT NULL REFERENCES video_calls(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            PRIMARY KEY (call_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS ice_servers (
            id SERIAL PRIMARY KEY,
            urls TEXT NOT NULL,
            username TEXT,
            credential TEXT,
            priority INT NOT NULL DEFAULT 0,
            is_active BOOLEAN NOT NULL DEFAULT TRUE
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	logger.Log.Info("database migrations applied")
	return nil
}
