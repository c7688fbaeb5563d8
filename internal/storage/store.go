package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/raine/facegrade/internal/analysis"
	"github.com/rs/zerolog/log"
)

// StoredAnalysis is one persisted analysis row. UserID is empty for rows
// written under the anonymous scope.
type StoredAnalysis struct {
	ID        string
	UserID    string
	ImageURI  string
	Result    analysis.Result
	CreatedAt time.Time
}

// Account is a registered user of the Identity Provider.
type Account struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// SQLiteStore persists analyses and accounts in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Tighten file permissions; the file may not exist yet on first open
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("dbPath", dbPath).Msg("failed to set database file permissions")
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	analysesQuery := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		image_uri TEXT NOT NULL,
		overall_score REAL NOT NULL,
		overall_rating TEXT NOT NULL,
		features TEXT NOT NULL,
		recommendations TEXT NOT NULL,
		detailed_breakdown TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(analysesQuery); err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}

	accountsQuery := `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		pass_hash BLOB NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(accountsQuery); err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}

	return nil
}

// SaveAnalysis writes one row for a completed analysis. An empty userID
// writes under the anonymous scope (NULL user_id).
func (s *SQLiteStore) SaveAnalysis(userID, imageURI string, result *analysis.Result) (*StoredAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	features, err := json.Marshal(result.Features)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}
	recommendations, err := json.Marshal(result.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	breakdown, err := json.Marshal(result.DetailedBreakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detailed breakdown: %w", err)
	}

	row := &StoredAnalysis{
		ID:        uuid.NewString(),
		UserID:    userID,
		ImageURI:  imageURI,
		Result:    *result,
		CreatedAt: time.Now().UTC(),
	}

	var scope sql.NullString
	if userID != "" {
		scope = sql.NullString{String: userID, Valid: true}
	}

	_, err = s.db.Exec(
		`INSERT INTO analyses (id, user_id, image_uri, overall_score, overall_rating, features, recommendations, detailed_breakdown, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, scope, imageURI, result.OverallScore, result.OverallRating,
		string(features), string(recommendations), string(breakdown), row.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}
	return row, nil
}

// LatestAnalysis returns the most recent row for the given scope, or
// nil, nil when the scope has no rows. An empty userID queries the anonymous
// scope; rows never leak between scopes.
func (s *SQLiteStore) LatestAnalysis(userID string) (*StoredAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, user_id, image_uri, overall_score, overall_rating, features, recommendations, detailed_breakdown, created_at
	          FROM analyses WHERE user_id IS NULL ORDER BY created_at DESC, rowid DESC LIMIT 1`
	args := []any{}
	if userID != "" {
		query = `SELECT id, user_id, image_uri, overall_score, overall_rating, features, recommendations, detailed_breakdown, created_at
		         FROM analyses WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`
		args = append(args, userID)
	}

	var (
		row             StoredAnalysis
		scope           sql.NullString
		features        string
		recommendations string
		breakdown       string
	)
	err := s.db.QueryRow(query, args...).Scan(
		&row.ID, &scope, &row.ImageURI, &row.Result.OverallScore, &row.Result.OverallRating,
		&features, &recommendations, &breakdown, &row.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest analysis: %w", err)
	}

	row.UserID = scope.String
	if err := json.Unmarshal([]byte(features), &row.Result.Features); err != nil {
		return nil, fmt.Errorf("failed to unmarshal features: %w", err)
	}
	if err := json.Unmarshal([]byte(recommendations), &row.Result.Recommendations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal([]byte(breakdown), &row.Result.DetailedBreakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detailed breakdown: %w", err)
	}
	return &row, nil
}

// CreateAccount inserts a new account. The caller is expected to have
// checked for an existing email first; the UNIQUE constraint backstops it.
func (s *SQLiteStore) CreateAccount(account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO accounts (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)",
		account.ID, account.Email, account.PassHash, account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountByEmail returns nil, nil when no account has the given email.
func (s *SQLiteStore) FindAccountByEmail(email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var account Account
	err := s.db.QueryRow(
		"SELECT id, email, pass_hash, created_at FROM accounts WHERE email = ?",
		email,
	).Scan(&account.ID, &account.Email, &account.PassHash, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &account, nil
}

// GetAccount returns nil, nil when no account has the given id.
func (s *SQLiteStore) GetAccount(id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var account Account
	err := s.db.QueryRow(
		"SELECT id, email, pass_hash, created_at FROM accounts WHERE id = ?",
		id,
	).Scan(&account.ID, &account.Email, &account.PassHash, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &account, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
