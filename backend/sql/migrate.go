package sql

import (
	"context"
	"fmt"
	"strings"

	"github.com/AlexeyBerezhnoy/mixer/scheme"
	"github.com/AlexeyBerezhnoy/mixer/scheme/edge"
)

// Migrate creates the tables of the given schemes and the join tables of
// their many relations. Existing tables are left as they are. Schemes linked
// through an intermediate scheme need that scheme migrated as well.
func (s *Store) Migrate(ctx context.Context, descs ...*scheme.Descriptor) error {
	for _, stmt := range s.tables(descs) {
		if _, err := s.exec(ctx, s.db, stmt); err != nil {
			return fmt.Errorf("sql: migrate: %w", err)
		}
	}
	return nil
}

// tables returns the CREATE TABLE statements of the schemes.
func (s *Store) tables(descs []*scheme.Descriptor) []string {
	var (
		stmts []string
		seen  = make(map[string]bool)
	)
	add := func(table string, defs []string) {
		if seen[table] {
			return
		}
		seen[table] = true
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.dialect.quote(table), strings.Join(defs, ", ")))
	}
	for _, d := range descs {
		var defs []string
		for _, fd := range stored(d) {
			defs = append(defs, s.dialect.quote(column(fd))+" "+s.dialect.columnType(fd))
		}
		add(scheme.Table(d.Name), defs)
	}
	for _, d := range descs {
		for _, fd := range d.Relations() {
			if fd.Relation.Cardinality != edge.Many {
				continue
			}
			add(scheme.JoinTable(d.Name, fd.Name), []string{
				s.dialect.quote("owner_id") + " " + s.dialect.keyType(d.ID()) + " NOT NULL",
				s.dialect.quote("member_id") + " " + s.dialect.keyType(foreignID(fd)) + " NOT NULL",
				fmt.Sprintf("PRIMARY KEY (%s, %s)", s.dialect.quote("owner_id"), s.dialect.quote("member_id")),
			})
		}
	}
	return stmts
}
