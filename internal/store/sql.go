package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"docuchat/internal/config"
	"docuchat/internal/models"
)

type sqlStore struct {
	db     *sql.DB
	ttl    time.Duration
	cancel context.CancelFunc
}

// OpenSQL connects to the configured database, ensures the schema, and
// starts a sweeper that deletes expired rows. Expired rows also miss on
// Get before the sweeper reaches them.
func OpenSQL(ctx context.Context, cfg *config.Config, ttl time.Duration) (DocumentStore, error) {
	driver := strings.ToLower(cfg.Store.Driver)
	dsn := cfg.Store.DSN

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case "sqlite", "sqlite3":
		driver = "sqlite3"
		if dsn == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// Each sqlite connection to :memory: is its own database, and
		// sqlite allows a single writer, so keep the pool at one.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	case "mysql":
		if dsn == "" {
			return nil, fmt.Errorf("mysql dsn must be provided")
		}
		// DATETIME columns scan into time.Time only with parseTime.
		if !strings.Contains(dsn, "parseTime") {
			if strings.Contains(dsn, "?") {
				dsn += "&parseTime=true"
			} else {
				dsn += "?parseTime=true"
			}
		}
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Store.Driver)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := migrate(db, driver); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &sqlStore{db: db, ttl: ttl, cancel: cancel}
	go s.sweepLoop(ctx, sweepInterval)
	return s, nil
}

// migrate ensures the documents table is present.
func migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch driver {
	case "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS documents (
				session_id TEXT PRIMARY KEY,
				file_name TEXT NOT NULL,
				chunks TEXT NOT NULL,
				summary TEXT NOT NULL DEFAULT '',
				upload_time DATETIME NOT NULL,
				expires_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_documents_expiry ON documents(expires_at)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS documents (
				session_id VARCHAR(64) NOT NULL,
				file_name VARCHAR(255) NOT NULL,
				chunks MEDIUMTEXT NOT NULL,
				summary MEDIUMTEXT NOT NULL,
				upload_time DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				PRIMARY KEY (session_id),
				INDEX idx_documents_expiry (expires_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}

func (s *sqlStore) Put(ctx context.Context, sessionID string, rec *models.DocumentRecord) error {
	chunks, err := json.Marshal(rec.Chunks)
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}

	// Delete-then-insert keeps the upsert portable across both drivers.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("replace document record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (session_id, file_name, chunks, summary, upload_time, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, rec.FileName, string(chunks), rec.Summary, rec.UploadTime.UTC(), time.Now().Add(s.ttl).UTC(),
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert document record: %w", err)
	}
	return tx.Commit()
}

func (s *sqlStore) Get(ctx context.Context, sessionID string) (*models.DocumentRecord, error) {
	var (
		rec       models.DocumentRecord
		chunksRaw string
		expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT file_name, chunks, summary, upload_time, expires_at
		FROM documents WHERE session_id = ?`, sessionID,
	).Scan(&rec.FileName, &chunksRaw, &rec.Summary, &rec.UploadTime, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document record: %w", err)
	}
	if time.Now().UTC().After(expiresAt) {
		s.db.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID)
		return nil, ErrNotFound
	}
	if err := json.Unmarshal([]byte(chunksRaw), &rec.Chunks); err != nil {
		return nil, fmt.Errorf("decode chunks: %w", err)
	}
	// Sliding expiry; a failed refresh still returns the record.
	s.db.ExecContext(ctx, `UPDATE documents SET expires_at = ? WHERE session_id = ?`,
		time.Now().Add(s.ttl).UTC(), sessionID)
	return &rec, nil
}

func (s *sqlStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete document record: %w", err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	s.cancel()
	return s.db.Close()
}

func (s *sqlStore) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.db.Exec(`DELETE FROM documents WHERE expires_at <= ?`, time.Now().UTC()); err != nil {
				log.Printf("sweep expired documents: %v", err)
			}
		}
	}
}
