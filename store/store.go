// Package store persists normalized questionnaire responses in the
// desirability_form_responses table and serves the read side: paginated
// listing, single fetch, aggregate summary and bulk export.
//
// Queries are written with ? placeholders and rebound for PostgreSQL.
// Every method runs a single unit of work against the pool and releases its
// rows or transaction before returning.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/mbolis/desirability-form/config"
	"github.com/mbolis/desirability-form/database"
	"github.com/mbolis/desirability-form/model"
)

const Table = "desirability_form_responses"

var (
	ErrNotFound      = errors.New("response not found")
	ErrUnknownFormat = errors.New("unknown export format")
)

// StorageError wraps any failure reported by the database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

type Store struct {
	db     *sql.DB
	driver string
}

func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) Driver() string {
	return s.driver
}

var selectColumns = strings.Join(model.Columns, ", ")

// insertColumns leaves id to the database.
var insertColumns = model.Columns[1:]

// Insert appends rec and returns its new id. A zero SubmissionDate is
// stamped with the current time.
func (s *Store) Insert(ctx context.Context, rec model.FormResponse) (int64, error) {
	if rec.SubmissionDate.IsZero() {
		rec.SubmissionDate = time.Now().UTC().Truncate(time.Microsecond)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr("insert.begin_tx", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", ")
	args := rec.Values()[1:]

	var id int64
	err = tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO `+Table+` (`+strings.Join(insertColumns, ", ")+`)
		VALUES (`+placeholders+`)
		RETURNING id`),
		args...,
	).Scan(&id)
	if err != nil {
		return 0, storageErr("insert", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, storageErr("insert.commit", err)
	}
	return id, nil
}

type ListQuery struct {
	Limit  int
	Offset int
	// Email keeps only rows whose email contains it, ignoring case.
	Email string
}

// List returns one page of responses, newest first, and the number of rows
// matching the filter.
func (s *Store) List(ctx context.Context, q ListQuery) (records []model.FormResponse, total int, err error) {
	where := ""
	var args []any
	if q.Email != "" {
		// fold both sides in SQL, SQLite's LOWER is ASCII-only
		where = ` WHERE LOWER(email) LIKE LOWER(?) ESCAPE '\'`
		args = append(args, "%"+escapeLike(q.Email)+"%")
	}

	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM `+Table+where), args...).Scan(&total)
	if err != nil {
		return nil, 0, storageErr("list.count", err)
	}

	records, err = s.query(ctx, "list", `
		SELECT `+selectColumns+`
		FROM `+Table+where+`
		ORDER BY submission_date DESC, id DESC
		LIMIT ? OFFSET ?`,
		append(args, q.Limit, q.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Get returns the response with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (model.FormResponse, error) {
	var rec model.FormResponse
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+selectColumns+`
		FROM `+Table+`
		WHERE id = ?`),
		id,
	).Scan(rec.Fields()...)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FormResponse{}, ErrNotFound
	}
	if err != nil {
		return model.FormResponse{}, storageErr("get", err)
	}
	return rec, nil
}

// All returns every response, newest first.
func (s *Store) All(ctx context.Context) ([]model.FormResponse, error) {
	return s.query(ctx, "all", `
		SELECT `+selectColumns+`
		FROM `+Table+`
		ORDER BY submission_date DESC, id DESC`)
}

func (s *Store) query(ctx context.Context, op string, query string, args ...any) ([]model.FormResponse, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	records := []model.FormResponse{}
	for rows.Next() {
		var rec model.FormResponse
		if err = rows.Scan(rec.Fields()...); err != nil {
			return nil, storageErr(op+".scan", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return records, nil
}

type Health struct {
	TableExists bool
	RecordCount int
}

// Health pings the database and reports whether the responses table exists
// and how many rows it holds.
func (s *Store) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := s.db.PingContext(ctx); err != nil {
		return h, storageErr("health.ping", err)
	}

	var query string
	switch s.driver {
	case config.DriverPostgres:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
	default:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, s.rebind(query), Table).Scan(&n); err != nil {
		return h, storageErr("health.table", err)
	}
	h.TableExists = n > 0
	if !h.TableExists {
		return h, nil
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+Table).Scan(&h.RecordCount); err != nil {
		return h, storageErr("health.count", err)
	}
	return h, nil
}

// Migrate re-applies the embedded schema migrations.
func (s *Store) Migrate() error {
	if err := database.Migrate(s.db, s.driver); err != nil {
		return storageErr("migrate", err)
	}
	return nil
}

// rebind turns ? placeholders into $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
