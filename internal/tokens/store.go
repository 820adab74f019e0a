// Package tokens persists OAuth tokens across runs so the interactive
// authorization flow only happens once per account.
package tokens

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// Store is the cached-credential dependency injected into OAuth-backed
// providers. Load returns (nil, nil) when no token is cached yet.
type Store interface {
	Load(account string) (*oauth2.Token, error)
	Save(account string, tok *oauth2.Token) error
}

// SQLite keeps tokens in a single-table sqlite database, JSON-encoded and
// keyed by account name.
type SQLite struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening token database: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
		account_name TEXT PRIMARY KEY,
		token TEXT)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tokens table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(account string) (*oauth2.Token, error) {
	var tokenJSON []byte
	err := s.db.QueryRow("SELECT token FROM tokens WHERE account_name = ?", account).Scan(&tokenJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token for %s: %w", account, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("unmarshaling token for %s: %w", account, err)
	}
	return &tok, nil
}

func (s *SQLite) Save(account string, tok *oauth2.Token) error {
	tokenJSON, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT OR REPLACE INTO tokens (account_name, token) VALUES (?, ?)", account, tokenJSON)
	return err
}
