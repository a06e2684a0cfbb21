package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/turn"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id TEXT PRIMARY KEY,
	role TEXT NOT NULL,
	state TEXT,
	created_at INTEGER NOT NULL,
	archived_at INTEGER,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at);
`

// columns maps filterable turn fields to table columns.
var columns = map[string]string{
	"ID":    "id",
	"Role":  "role",
	"State": "state",
}

// Service implements a turn archive on SQLite.
type Service struct {
	db *sql.DB
}

var _ turn.Service = (*Service)(nil)

// Save upserts a turn.
func (s *Service) Save(ctx context.Context, t *conversation.Turn) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}
	var archivedAt sql.NullInt64
	if t.ArchivedAt != nil {
		archivedAt = sql.NullInt64{Int64: t.ArchivedAt.UnixNano(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO turns (id, role, state, created_at, archived_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			archived_at = excluded.archived_at,
			data = excluded.data`,
		t.ID, string(t.Role), string(t.State), t.CreatedAt.UnixNano(), archivedAt, string(data))
	if err != nil {
		return fmt.Errorf("failed to save turn %s: %w", t.ID, err)
	}
	return nil
}

// Load returns a turn by ID.
func (s *Service) Load(ctx context.Context, id string) (*conversation.Turn, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM turns WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dao.NotFound("turn", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load turn %s: %w", id, err)
	}
	return decode(data)
}

// Delete removes a turn.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete turn %s: %w", id, err)
	}
	return nil
}

// List returns matching turns ordered by creation time. Parameters naming
// unknown fields are ignored.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*conversation.Turn, error) {
	query, args, ok := listQuery(parameters)
	if !ok {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()
	var ret []*conversation.Turn
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		t, err := decode(data)
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	turn.Sort(ret)
	return ret, nil
}

// Close releases the database.
func (s *Service) Close() error {
	return s.db.Close()
}

func listQuery(parameters []*dao.Parameter) (string, []interface{}, bool) {
	var where []string
	var args []interface{}
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		column, ok := columns[parameter.Name]
		if !ok {
			continue
		}
		switch len(parameter.Values) {
		case 0:
			return "", nil, false
		case 1:
			where = append(where, column+" = ?")
		default:
			where = append(where, column+" IN (?"+strings.Repeat(", ?", len(parameter.Values)-1)+")")
		}
		for _, value := range parameter.Values {
			args = append(args, value)
		}
	}
	query := `SELECT data FROM turns`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return query + " ORDER BY created_at, rowid", args, true
}

func decode(data string) (*conversation.Turn, error) {
	ret := &conversation.Turn{}
	if err := json.Unmarshal([]byte(data), ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
	}
	return ret, nil
}

// New opens and migrates the archive at dsn, a file path or ":memory:".
func New(dsn string) (*Service, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Service{db: db}, nil
}
