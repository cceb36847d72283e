package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/turtacn/Musaid-NLQ/internal/application/numerical"
	"github.com/turtacn/Musaid-NLQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/Musaid-NLQ/pkg/errors"
)

var operatorSQL = map[numerical.FilterOperator]string{
	numerical.FilterEq:  "=",
	numerical.FilterNe:  "IS DISTINCT FROM",
	numerical.FilterGte: ">=",
	numerical.FilterLt:  "<",
}

// DataStore runs numerical queries against PostgreSQL. Identifiers are
// checked against an allow-list and quoted; values are always bound
// parameters.
type DataStore struct {
	db      *sql.DB
	schema  map[string]map[string]bool
	timeout time.Duration
	logger  logging.Logger
}

var _ numerical.DataStore = (*DataStore)(nil)

// NewDataStore serves the tables and columns of schema. A zero timeout
// leaves deadlines to the caller.
func NewDataStore(db *sql.DB, schema map[string][]string, timeout time.Duration, logger logging.Logger) *DataStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	allowed := make(map[string]map[string]bool, len(schema))
	for table, cols := range schema {
		set := make(map[string]bool, len(cols))
		for _, c := range cols {
			set[c] = true
		}
		allowed[table] = set
	}
	return &DataStore{db: db, schema: allowed, timeout: timeout, logger: logger.Named("datastore")}
}

// Count returns SELECT COUNT(*) over the matching rows.
func (s *DataStore) Count(ctx context.Context, table string, filters []numerical.Predicate) (int64, error) {
	where, args, err := s.where(table, filters)
	if err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + pq.QuoteIdentifier(table) + where

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, s.fail(err, "count", table)
	}
	return n, nil
}

// Sum adds column over the matching rows; no rows sum to zero.
func (s *DataStore) Sum(ctx context.Context, table, column string, filters []numerical.Predicate) (float64, error) {
	if err := s.checkColumn(table, column); err != nil {
		return 0, err
	}
	where, args, err := s.where(table, filters)
	if err != nil {
		return 0, err
	}
	query := "SELECT COALESCE(SUM(" + pq.QuoteIdentifier(column) + "), 0) FROM " + pq.QuoteIdentifier(table) + where

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var v float64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, s.fail(err, "sum", table)
	}
	return v, nil
}

// Query returns up to limit matching rows with every column.
func (s *DataStore) Query(ctx context.Context, table string, filters []numerical.Predicate, limit int) ([]numerical.Row, error) {
	where, args, err := s.where(table, filters)
	if err != nil {
		return nil, err
	}
	query := "SELECT * FROM " + pq.QuoteIdentifier(table) + where
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.fail(err, "query", table)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, s.fail(err, "scan", table)
	}
	return out, nil
}

func (s *DataStore) where(table string, filters []numerical.Predicate) (string, []interface{}, error) {
	if _, ok := s.schema[table]; !ok {
		return "", nil, errors.New(errors.ErrCodeUnknownTable, "table is not allowed").WithDetail("table=" + table)
	}
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	for _, p := range filters {
		if err := s.checkColumn(table, p.Column); err != nil {
			return "", nil, err
		}
		op, ok := operatorSQL[p.Operator]
		if !ok {
			return "", nil, errors.Newf(errors.ErrCodeInvalidFilter, "unsupported operator %s", p.Operator)
		}
		args = append(args, p.Value)
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", pq.QuoteIdentifier(p.Column), op, len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (s *DataStore) checkColumn(table, column string) error {
	if !s.schema[table][column] {
		return errors.New(errors.ErrCodeUnknownColumn, "column is not allowed").
			WithDetail("table=" + table + " column=" + column)
	}
	return nil
}

func (s *DataStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *DataStore) fail(err error, op, table string) error {
	s.logger.Error("data store operation failed",
		logging.String("operation", op),
		logging.String("table", table),
		logging.Err(err))
	return errors.Wrap(err, errors.ErrCodeDataStore, op+" failed")
}

// scanRows reads every row into a column-keyed map. Byte slices become
// strings.
func scanRows(rows *sql.Rows) ([]numerical.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []numerical.Row
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(numerical.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

//Personal.AI order the ending
