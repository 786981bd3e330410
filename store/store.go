package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"recall/domain"

	"github.com/XSAM/otelsql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(user_id);

CREATE TABLE IF NOT EXISTS terms (
	memory_id TEXT NOT NULL,
	term      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_terms_term ON terms(term);
CREATE INDEX IF NOT EXISTS idx_terms_memory ON terms(memory_id);

CREATE TABLE IF NOT EXISTS history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	memory_id   TEXT NOT NULL,
	event       TEXT NOT NULL,
	content     TEXT NOT NULL,
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_memory ON history(memory_id);
`

type Store struct {
	db *sql.DB

	mu      sync.RWMutex
	onEvent func(domain.Event)
}

func Open(ctx context.Context, file string) (*Store, error) {
	db, err := otelsql.Open("sqlite3", "file:"+file+"?_foreign_keys=on",
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", file, err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// OnEvent registers fn to be called after every successful mutation.  Only
// one subscriber is held; the server's event hub fans out from there.
func (s *Store) OnEvent(fn func(domain.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvent = fn
}

func (s *Store) emit(kind domain.EventKind, mem domain.Memory, at time.Time) {
	s.mu.RLock()
	fn := s.onEvent
	s.mu.RUnlock()

	if fn != nil {
		fn(domain.Event{Kind: kind, Memory: mem, At: at})
	}
}

func (s *Store) Add(ctx context.Context, userID, content string, meta domain.Metadata) (*domain.Memory, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: a user id is required", domain.ErrInvalid)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalid)
	}

	now := time.Now().UTC()
	mem := domain.Memory{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}

	metaJson, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, content, metadata, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		mem.ID, mem.UserID, mem.Content, string(metaJson), now.UnixNano(), now.UnixNano(),
	); err != nil {
		return nil, err
	}

	if err := writeTerms(ctx, tx, mem.ID, mem.Content); err != nil {
		return nil, err
	}

	if err := writeHistory(ctx, tx, mem.ID, domain.EventCreated, mem.Content, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.emit(domain.EventCreated, mem, now)
	return &mem, nil
}

func (s *Store) Update(ctx context.Context, id, content string, meta domain.Metadata) (*domain.Memory, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalid)
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mem := *existing
	mem.Content = content
	mem.Metadata = meta
	mem.UpdatedAt = now

	metaJson, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE memories SET content = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		mem.Content, string(metaJson), now.UnixNano(), mem.ID,
	); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM terms WHERE memory_id = ?`, mem.ID); err != nil {
		return nil, err
	}
	if err := writeTerms(ctx, tx, mem.ID, mem.Content); err != nil {
		return nil, err
	}

	if err := writeHistory(ctx, tx, mem.ID, domain.EventUpdated, mem.Content, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.emit(domain.EventUpdated, mem, now)
	return &mem, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := writeHistory(ctx, tx, existing.ID, domain.EventDeleted, existing.Content, now); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM terms WHERE memory_id = ?`, existing.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, existing.ID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.emit(domain.EventDeleted, *existing, now)
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, content, metadata, created_at, updated_at FROM memories WHERE id = ?`,
		id,
	)

	mem, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return mem, nil
}

func (s *Store) GetAll(ctx context.Context, userID string) ([]*domain.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, content, metadata, created_at, updated_at FROM memories WHERE user_id = ? ORDER BY updated_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memories := []*domain.Memory{}
	for rows.Next() {
		mem, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, mem)
	}

	return memories, rows.Err()
}

func (s *Store) History(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT memory_id, event, content, recorded_at FROM history WHERE memory_id = ? ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var entry domain.HistoryEntry
		var event string
		var recorded int64
		if err := rows.Scan(&entry.MemoryID, &event, &entry.Content, &recorded); err != nil {
			return nil, err
		}
		entry.Event = domain.EventKind(event)
		entry.RecordedAt = time.Unix(0, recorded).UTC()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Resolve expands a memory id prefix into the full id.  The prefix must
// match exactly one memory.  substr rather than LIKE, so %/_ in the prefix
// are literal and cannot act as wildcards.
func (s *Store) Resolve(ctx context.Context, prefix string) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM memories WHERE substr(id, 1, length(?)) = ? LIMIT 2`,
		prefix, prefix,
	)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", domain.ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("prefix %q is ambiguous", prefix)
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanMemory(row scannable) (*domain.Memory, error) {
	mem := &domain.Memory{}
	var metaJson string
	var created, updated int64

	if err := row.Scan(&mem.ID, &mem.UserID, &mem.Content, &metaJson, &created, &updated); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metaJson), &mem.Metadata); err != nil {
		return nil, err
	}

	mem.CreatedAt = time.Unix(0, created).UTC()
	mem.UpdatedAt = time.Unix(0, updated).UTC()

	return mem, nil
}

func writeTerms(ctx context.Context, tx *sql.Tx, id, content string) error {
	for _, term := range Tokenize(content) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO terms (memory_id, term) VALUES (?, ?)`, id, term); err != nil {
			return err
		}
	}
	return nil
}

func writeHistory(ctx context.Context, tx *sql.Tx, id string, event domain.EventKind, content string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO history (memory_id, event, content, recorded_at) VALUES (?, ?, ?, ?)`,
		id, string(event), content, at.UnixNano(),
	)
	return err
}
