package repo

import (
	"context"
	"errors"
	"reflect"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/infra"
)

type call struct {
	query string
	args  []any
}

// stubRunner records statements and replays canned results keyed by query.
type stubRunner struct {
	calls     []call
	rows      map[string]stubRow
	affected  map[string]int64
	execErr   map[string]error
	txBegun   int
	txAborted int
}

func newStubRunner() *stubRunner {
	return &stubRunner{
		rows:     map[string]stubRow{},
		affected: map[string]int64{},
		execErr:  map[string]error{},
	}
}

func (s *stubRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	if err := s.execErr[query]; err != nil {
		return pgconn.CommandTag{}, err
	}
	n, ok := s.affected[query]
	if !ok {
		n = 1
	}
	return pgconn.NewCommandTag("UPDATE " + strconv.FormatInt(n, 10)), nil
}

func (s *stubRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.calls = append(s.calls, call{query: query, args: args})
	if row, ok := s.rows[query]; ok {
		return row
	}
	return stubRow{err: pgx.ErrNoRows}
}

func (s *stubRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.calls = append(s.calls, call{query: query, args: args})
	return nil, errors.New("not implemented")
}

func (s *stubRunner) InTx(ctx context.Context, fn func(infra.SQLExecutor) error) error {
	s.txBegun++
	if err := fn(s); err != nil {
		s.txAborted++
		return err
	}
	return nil
}

func (s *stubRunner) executed(query string) bool {
	for _, c := range s.calls {
		if c.query == query {
			return true
		}
	}
	return false
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("scan arity mismatch")
	}
	for i, v := range r.values {
		if err := assign(dest[i], v); err != nil {
			return err
		}
	}
	return nil
}

func assign(dest, v any) error {
	target := reflect.ValueOf(dest)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return errors.New("scan destination must be a pointer")
	}
	value := reflect.ValueOf(v)
	if !value.Type().AssignableTo(target.Elem().Type()) {
		return errors.New("scan type mismatch for " + target.Elem().Type().String())
	}
	target.Elem().Set(value)
	return nil
}
