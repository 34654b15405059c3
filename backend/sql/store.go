// Package sql stores blended instances in a relational database.
//
// Each scheme maps to one table named by scheme.Table. Primitive fields map to
// columns of the same name, one-relations to a "<relation>_id" column and many
// relations to a join table named by scheme.JoinTable. Migrate creates the
// tables of a set of schemes.
//
//	store, err := sql.Open(sql.SQLite, "file:fixtures?mode=memory")
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//	if err := store.Migrate(ctx, user, post); err != nil {
//		return err
//	}
//	m := mixer.New(mixer.WithBackend(store))
package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/AlexeyBerezhnoy/mixer"
	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/field"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Store is a mixer.Backend on top of a *sql.DB.
type Store struct {
	db      *sql.DB
	dialect dialect
	stats   *QueryStats
	slow    time.Duration
	hook    SlowQueryHook
	log     *slog.Logger
}

var _ mixer.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithSlowThreshold sets the duration after which a statement counts as
// slow. Zero disables slow statement detection.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *Store) {
		s.slow = d
	}
}

// WithSlowQueryHook sets a function called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) Option {
	return func(s *Store) {
		s.hook = hook
	}
}

// WithSlowQueryLog logs slow statements at warn level.
func WithSlowQueryLog() Option {
	return func(s *Store) {
		s.hook = func(ctx context.Context, query string, args []any, d time.Duration) {
			s.log.WarnContext(ctx, "slow statement", "duration", d, "query", query, "args", args)
		}
	}
}

// WithLogger sets the logger of the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens a database of the given dialect. MySQL connections always parse
// DATETIME columns into time.Time.
func Open(name, dsn string, opts ...Option) (*Store, error) {
	d, err := parseDialect(name)
	if err != nil {
		return nil, err
	}
	var db *sql.DB
	switch d {
	case MySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("sql: parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		conn, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, err
		}
		db = sql.OpenDB(conn)
	case Postgres:
		conn, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("sql: parse postgres dsn: %w", err)
		}
		db = sql.OpenDB(conn)
	default:
		if db, err = sql.Open("sqlite", dsn); err != nil {
			return nil, err
		}
		// Every connection to an in-memory database sees its own database.
		if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
			db.SetMaxOpenConns(1)
		}
	}
	return newStore(d, db, opts), nil
}

// OpenDB wraps an existing connection pool.
func OpenDB(name string, db *sql.DB, opts ...Option) (*Store, error) {
	d, err := parseDialect(name)
	if err != nil {
		return nil, err
	}
	return newStore(d, db, opts), nil
}

func newStore(d dialect, db *sql.DB, opts []Option) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		stats:   &QueryStats{},
		slow:    DefaultSlowThreshold,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the dialect name of the store.
func (s *Store) Dialect() string { return string(s.dialect) }

// Stats returns the statement statistics of the store.
func (s *Store) Stats() *QueryStats { return s.stats }

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Commit inserts the instance and sets its identity. Fields that were never
// set are left to the column defaults.
func (s *Store) Commit(ctx context.Context, inst *scheme.Instance) (*scheme.Instance, error) {
	if inst == nil {
		return nil, errors.New("sql: commit nil instance")
	}
	d := inst.Scheme()
	var (
		cols []string
		args []any
	)
	for _, fd := range d.Fields {
		if fd.IsMany() || fd.IsID() && inst.ID() == nil {
			continue
		}
		v, ok := inst.Lookup(fd.Name)
		if !ok {
			continue
		}
		arg, err := s.encode(fd, v)
		if err != nil {
			return nil, fmt.Errorf("sql: commit %s: %w", d.Name, err)
		}
		cols = append(cols, s.dialect.quote(column(fd)))
		args = append(args, arg)
	}
	table := scheme.Table(d.Name)
	query := s.dialect.emptyInsert(table)
	if len(cols) > 0 {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", s.dialect.quote(table), strings.Join(cols, ", "), s.placeholders(1, len(cols)))
	}
	id := d.ID()
	switch {
	case id == nil || !id.AutoID():
		if _, err := s.exec(ctx, s.db, query, args...); err != nil {
			return nil, s.constraint(table, err)
		}
	case s.dialect.returning():
		var v int64
		query += " RETURNING " + s.dialect.quote(id.Name)
		if err := s.scanRow(ctx, query, args, &v); err != nil {
			return nil, s.constraint(table, err)
		}
		inst.SetID(v)
	default:
		res, err := s.exec(ctx, s.db, query, args...)
		if err != nil {
			return nil, s.constraint(table, err)
		}
		if inst.ID() == nil {
			v, err := res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("sql: commit %s: %w", d.Name, err)
			}
			inst.SetID(v)
		}
	}
	return inst, nil
}

// Select returns a random row whose columns equal the filters, or nil.
func (s *Store) Select(ctx context.Context, d *scheme.Descriptor, filters map[string]any) (*scheme.Instance, error) {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	slices.Sort(names)
	var (
		where []string
		args  []any
	)
	for _, name := range names {
		fd, ok := d.Field(name)
		if !ok || fd.IsMany() {
			return nil, fmt.Errorf("sql: select %s: cannot filter on %q", d.Name, name)
		}
		v, err := s.encode(fd, filters[name])
		if err != nil {
			return nil, fmt.Errorf("sql: select %s: %w", d.Name, err)
		}
		if v == nil {
			where = append(where, s.dialect.quote(column(fd))+" IS NULL")
			continue
		}
		args = append(args, v)
		where = append(where, s.dialect.quote(column(fd))+" = "+s.dialect.placeholder(len(args)))
	}
	query := s.selectFrom(d)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + s.dialect.random() + " LIMIT 1"
	inst, err := s.queryOne(ctx, d, query, args)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return inst, err
}

// Get returns the row with the given identity. Unknown identities return an
// error wrapping ErrNotFound.
func (s *Store) Get(ctx context.Context, d *scheme.Descriptor, id any) (*scheme.Instance, error) {
	fd := d.ID()
	if fd == nil {
		return nil, fmt.Errorf("sql: scheme %s has no identity", d.Name)
	}
	query := s.selectFrom(d) + " WHERE " + s.dialect.quote(fd.Name) + " = " + s.dialect.placeholder(1)
	inst, err := s.queryOne(ctx, d, query, []any{identity(id)})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s#%v", ErrNotFound, d.Name, id)
	}
	return inst, err
}

// Link inserts one join table row per member of a many relation.
func (s *Store) Link(ctx context.Context, owner *scheme.Instance, rel *scheme.FieldDescriptor, members []*scheme.Instance) (err error) {
	if owner.ID() == nil {
		return fmt.Errorf("sql: link %s: owner was not committed", rel.Name)
	}
	table := scheme.JoinTable(owner.Scheme().Name, rel.Name)
	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s)",
		s.dialect.quote(table), s.dialect.quote("owner_id"), s.dialect.quote("member_id"), s.placeholders(1, 2))
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()
	for _, m := range members {
		if m.ID() == nil {
			return fmt.Errorf("sql: link %s: member was not committed", rel.Name)
		}
		if _, err := s.exec(ctx, tx, query, owner.ID(), m.ID()); err != nil {
			return s.constraint(table, err)
		}
	}
	return tx.Commit()
}

// Linked returns the identities of the members linked to the owner.
func (s *Store) Linked(ctx context.Context, owner *scheme.Instance, relation string) ([]int64, error) {
	table := scheme.JoinTable(owner.Scheme().Name, relation)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %[1]s",
		s.dialect.quote("member_id"), s.dialect.quote(table), s.dialect.quote("owner_id"), s.dialect.placeholder(1))
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, owner.ID())
	s.record(ctx, false, query, []any{owner.ID()}, start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func (s *Store) exec(ctx context.Context, e execer, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := e.ExecContext(ctx, query, args...)
	s.record(ctx, true, query, args, start, err)
	return res, err
}

func (s *Store) scanRow(ctx context.Context, query string, args []any, dest ...any) error {
	start := time.Now()
	err := s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		s.record(ctx, false, query, args, start, nil)
	} else {
		s.record(ctx, false, query, args, start, err)
	}
	return err
}

func (s *Store) queryOne(ctx context.Context, d *scheme.Descriptor, query string, args []any) (*scheme.Instance, error) {
	fields := stored(d)
	raw := make([]any, len(fields))
	dest := make([]any, len(fields))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := s.scanRow(ctx, query, args, dest...); err != nil {
		return nil, err
	}
	inst := scheme.NewInstance(d)
	for i, fd := range fields {
		v, err := s.decode(fd, raw[i])
		if err != nil {
			return nil, fmt.Errorf("sql: scan %s.%s: %w", d.Name, fd.Name, err)
		}
		if err := inst.Set(fd.Name, v); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func (s *Store) selectFrom(d *scheme.Descriptor) string {
	fields := stored(d)
	cols := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = s.dialect.quote(column(fd))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), s.dialect.quote(scheme.Table(d.Name)))
}

func (s *Store) placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = s.dialect.placeholder(from + i)
	}
	return strings.Join(ps, ", ")
}

func (s *Store) constraint(table string, err error) error {
	if classify(err) != noConstraint {
		return &ConstraintError{Table: table, Err: err}
	}
	return err
}

// stored returns the fields that have a column in the scheme table.
func stored(d *scheme.Descriptor) []*scheme.FieldDescriptor {
	fields := make([]*scheme.FieldDescriptor, 0, len(d.Fields))
	for _, fd := range d.Fields {
		if !fd.IsMany() {
			fields = append(fields, fd)
		}
	}
	return fields
}

func (s *Store) encode(fd *scheme.FieldDescriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if fd.IsRelation() {
		id := identity(v)
		if inst, ok := v.(*scheme.Instance); ok && id == nil {
			return nil, fmt.Errorf("%s member of %s was not committed", inst.Scheme().Name, fd.Name)
		}
		return id, nil
	}
	switch v := v.(type) {
	case time.Time:
		switch fd.Type {
		case field.TypeDate:
			return v.Format(time.DateOnly), nil
		case field.TypeClock:
			return v.Format(field.ClockLayout), nil
		}
		if s.dialect == SQLite {
			return v.UTC().Format(time.RFC3339Nano), nil
		}
		return v, nil
	case decimal.Decimal:
		return v.StringFixed(int32(fd.Scale)), nil
	case uuid.UUID:
		return v.String(), nil
	case string, []byte, bool, int64, float64:
		return v, nil
	}
	if fd.Type == field.TypeJSON || fd.Type == field.TypeOther {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}

func (s *Store) decode(fd *scheme.FieldDescriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if fd.IsRelation() {
		target, err := fd.Relation.Scheme()
		if err != nil {
			return nil, err
		}
		t := field.TypeID
		if fid := foreignID(fd); fid != nil {
			t = fid.Type
		}
		id, err := field.Coerce(t, v)
		if err != nil {
			return nil, err
		}
		return scheme.Reference(target, id), nil
	}
	if fd.Type != field.TypeJSON && fd.Type != field.TypeOther {
		return field.Coerce(fd.Type, v)
	}
	var b []byte
	switch v := v.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return v, nil
	}
	if fd.GoType == nil {
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	out := reflect.New(fd.GoType)
	if err := json.Unmarshal(b, out.Interface()); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

func identity(v any) any {
	if inst, ok := v.(*scheme.Instance); ok {
		if inst == nil {
			return nil
		}
		return inst.ID()
	}
	return v
}
