package mock

import (
	"maps"
	"slices"
	"strings"
)

// run executes one of the statements the fake ledger understands:
//
//	SELECT * FROM <table>
//	INSERT INTO <table> ?
//	DELETE FROM <table>
//	CREATE TABLE <table>
//	SELECT name FROM information_schema.user_tables WHERE status = 'ACTIVE'
//
// Writes are applied on commit. s.ledger.mu must be locked.
func (s *session) run(tx *transaction, statement string, parameters [][]byte) (
	values [][]byte, writes int64, _ error,
) {
	l := s.ledger
	if statement == ListTablesStatement {
		for _, name := range slices.Sorted(maps.Keys(l.tables)) {
			b, err := l.codec.Encode(map[string]any{"name": name})
			if err != nil {
				return nil, 0, err
			}
			values = append(values, b)
		}

		return values, 0, nil
	}

	fields := strings.Fields(statement)
	if len(fields) < 3 {
		return nil, 0, badRequest("syntax error: %q", statement)
	}
	verb := strings.ToUpper(fields[0]) + " " + strings.ToUpper(fields[1])
	switch {
	case verb == "SELECT *" && len(fields) == 4 && strings.EqualFold(fields[2], "FROM"):
		t, err := l.table(fields[3])
		if err != nil {
			return nil, 0, err
		}
		tx.reads[fields[3]] = t.version

		return append([][]byte(nil), t.docs...), 0, nil
	case verb == "INSERT INTO" && len(fields) == 4 && fields[3] == "?":
		name := fields[2]
		t, err := l.table(name)
		if err != nil {
			return nil, 0, err
		}
		if len(parameters) != 1 {
			return nil, 0, badRequest("INSERT expects one parameter, got %d", len(parameters))
		}
		doc := parameters[0]
		tx.reads[name] = t.version
		tx.writes = append(tx.writes, func() {
			t.docs = append(t.docs, doc)
			t.version++
		})

		return nil, 1, nil
	case verb == "DELETE FROM" && len(fields) == 3:
		name := fields[2]
		t, err := l.table(name)
		if err != nil {
			return nil, 0, err
		}
		tx.reads[name] = t.version
		tx.writes = append(tx.writes, func() {
			t.docs = nil
			t.version++
		})

		return nil, int64(len(t.docs)), nil
	case verb == "CREATE TABLE" && len(fields) == 3:
		name := fields[2]
		if _, ok := l.tables[name]; ok {
			return nil, 0, badRequest("table %s already exists", name)
		}
		tx.writes = append(tx.writes, func() {
			if _, ok := l.tables[name]; !ok {
				l.tables[name] = &table{}
			}
		})

		return nil, 1, nil
	default:
		return nil, 0, badRequest("unsupported statement: %q", statement)
	}
}

// l.mu must be locked
func (l *Ledger) table(name string) (*table, error) {
	t, ok := l.tables[name]
	if !ok {
		return nil, badRequest("table %s does not exist", name)
	}

	return t, nil
}
