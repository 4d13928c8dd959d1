package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tablecrawl/tablecrawl/internal/model"
)

// Store provides SQLite-based storage for crawl checkpoints.
//
// Design decision: We use one database file per checkpoint directory rather
// than a file per crawl root. Records are keyed by crawl root, so a single
// file supports crawling many roots while keeping backup and cleanup a
// single-file operation.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a checkpoint Store in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "tablecrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check checkpoint path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to refuse creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the checkpoint database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the checkpoint schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- Listing progress records the last fully resolved listing page per
	-- root, plus the URL of the page after it so a resumed run can continue
	-- without re-deriving pagination
	CREATE TABLE IF NOT EXISTS listing_progress (
		crawl_root TEXT PRIMARY KEY,
		last_page INTEGER NOT NULL,
		next_url TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Review progress records the last fully resolved review page per
	-- restaurant, so partially crawled review sets resume mid-restaurant
	CREATE TABLE IF NOT EXISTS review_progress (
		crawl_root TEXT NOT NULL,
		restaurant_id TEXT NOT NULL,
		last_page INTEGER NOT NULL,
		next_url TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (crawl_root, restaurant_id)
	);

	CREATE INDEX IF NOT EXISTS idx_review_progress_root ON review_progress(crawl_root);
	`
	if _, err := s.db.ExecContext(context.Background(), schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// ResumePoint loads the checkpoint record for crawlRoot. A root with no
// committed progress returns an empty record, never an error.
func (s *Store) ResumePoint(ctx context.Context, crawlRoot string) (*model.CheckpointRecord, error) {
	record := model.NewCheckpointRecord(crawlRoot)

	err := s.db.QueryRowContext(ctx,
		`SELECT last_page, next_url FROM listing_progress WHERE crawl_root = ?`,
		crawlRoot,
	).Scan(&record.LastListingPage, &record.NextListingURL)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query listing progress: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT restaurant_id, last_page, next_url FROM review_progress WHERE crawl_root = ?`,
		crawlRoot,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query review progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var restaurantID, nextURL string
		var lastPage int
		if err := rows.Scan(&restaurantID, &lastPage, &nextURL); err != nil {
			return nil, fmt.Errorf("failed to scan review progress: %w", err)
		}
		record.ReviewPages[restaurantID] = lastPage
		if nextURL != "" {
			record.NextReviewURLs[restaurantID] = nextURL
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review progress: %w", err)
	}

	return record, nil
}

// CommitListingPage records that every task descending from the given
// listing page has resolved. nextURL is the following listing page's URL,
// empty when pagination is exhausted. The watermark is monotonic: committing
// a page below the stored one is a no-op, next_url included.
func (s *Store) CommitListingPage(ctx context.Context, crawlRoot string, page int, nextURL string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO listing_progress (crawl_root, last_page, next_url, updated_at)
	VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(crawl_root) DO UPDATE SET
		next_url = CASE WHEN excluded.last_page >= last_page THEN excluded.next_url ELSE next_url END,
		last_page = MAX(last_page, excluded.last_page),
		updated_at = CURRENT_TIMESTAMP`,
		crawlRoot, page, nextURL,
	)
	if err != nil {
		return fmt.Errorf("failed to commit listing page %d: %w", page, err)
	}
	return nil
}

// CommitReviewPage records that the given restaurant's review page has
// resolved, with the same monotonic guarantee as CommitListingPage.
func (s *Store) CommitReviewPage(ctx context.Context, crawlRoot, restaurantID string, page int, nextURL string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO review_progress (crawl_root, restaurant_id, last_page, next_url, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(crawl_root, restaurant_id) DO UPDATE SET
		next_url = CASE WHEN excluded.last_page >= last_page THEN excluded.next_url ELSE next_url END,
		last_page = MAX(last_page, excluded.last_page),
		updated_at = CURRENT_TIMESTAMP`,
		crawlRoot, restaurantID, page, nextURL,
	)
	if err != nil {
		return fmt.Errorf("failed to commit review page %d for %s: %w", page, restaurantID, err)
	}
	return nil
}

// Reset deletes all progress for crawlRoot, forcing the next run to start
// from the first listing page.
func (s *Store) Reset(ctx context.Context, crawlRoot string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM listing_progress WHERE crawl_root = ?`, crawlRoot); err != nil {
		return fmt.Errorf("failed to reset listing progress: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM review_progress WHERE crawl_root = ?`, crawlRoot); err != nil {
		return fmt.Errorf("failed to reset review progress: %w", err)
	}
	return nil
}
