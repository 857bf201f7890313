// Package sqlite keeps match history and captain opt-outs in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/jose-valero/pug-draft-bot/internal/domain/match"
	"github.com/jose-valero/pug-draft-bot/internal/storage/sqlite/migrations"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

var ErrAlreadyExists = errors.New("record already exists")

// Store persists bot state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Str("component", "sqlite").Str("path", path).Msg("database ready")
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveMatch inserts one finished draft.
func (s *Store) SaveMatch(ctx context.Context, rec match.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(rec.GuildID) == "" {
		return fmt.Errorf("guild id is required")
	}
	blue, err := json.Marshal(nonNil(rec.Blue))
	if err != nil {
		return fmt.Errorf("encode blue team: %w", err)
	}
	red, err := json.Marshal(nonNil(rec.Red))
	if err != nil {
		return fmt.Errorf("encode red team: %w", err)
	}
	at := rec.CompletedAt
	if at.IsZero() {
		at = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO matches (
		   id,
		   guild_id,
		   mode,
		   blue_captain,
		   red_captain,
		   blue_json,
		   red_json,
		   completed_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.GuildID,
		rec.Mode,
		rec.BlueCaptain,
		rec.RedCaptain,
		string(blue),
		string(red),
		toMillis(at),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("save match: %w", err)
	}
	return nil
}

// RecentMatches returns the guild's latest matches, newest first. limit is
// clamped to 1..MaxHistoryLimit; zero means DefaultHistoryLimit.
func (s *Store) RecentMatches(ctx context.Context, guildID string, limit int) ([]match.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, guild_id, mode, blue_captain, red_captain, blue_json, red_json, completed_at
		   FROM matches
		  WHERE guild_id = ?
		  ORDER BY completed_at DESC, id
		  LIMIT ?`,
		guildID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	defer rows.Close()

	var out []match.Record
	for rows.Next() {
		var (
			rec         match.Record
			blue, red   string
			completedAt int64
		)
		if err := rows.Scan(&rec.ID, &rec.GuildID, &rec.Mode, &rec.BlueCaptain, &rec.RedCaptain, &blue, &red, &completedAt); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if err := json.Unmarshal([]byte(blue), &rec.Blue); err != nil {
			return nil, fmt.Errorf("decode blue team of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(red), &rec.Red); err != nil {
			return nil, fmt.Errorf("decode red team of %s: %w", rec.ID, err)
		}
		rec.CompletedAt = fromMillis(completedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matches: %w", err)
	}
	return out, nil
}

// SetOptOut records whether the user refuses random captaincy in the guild.
func (s *Store) SetOptOut(ctx context.Context, guildID, userID string, enabled bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if guildID == "" || userID == "" {
		return fmt.Errorf("guild id and user id are required")
	}
	var err error
	if enabled {
		_, err = s.sqlDB.ExecContext(ctx,
			`INSERT INTO captain_optouts (guild_id, user_id, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT (guild_id, user_id) DO UPDATE SET updated_at = excluded.updated_at`,
			guildID, userID, toMillis(time.Now()),
		)
	} else {
		_, err = s.sqlDB.ExecContext(ctx,
			`DELETE FROM captain_optouts WHERE guild_id = ? AND user_id = ?`,
			guildID, userID,
		)
	}
	if err != nil {
		return fmt.Errorf("set captain opt-out: %w", err)
	}
	return nil
}

// OptedOut returns the set of users of the guild that opted out.
func (s *Store) OptedOut(ctx context.Context, guildID string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT user_id FROM captain_optouts WHERE guild_id = ?`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list captain opt-outs: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan captain opt-out: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate captain opt-outs: %w", err)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
