// Package numerical answers count, sum and list questions by mapping them
// onto filtered data store calls and formatting the result in Arabic.
package numerical

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

// EntityType names the business table a numerical query targets.
type EntityType string

const (
	EntityCustomers EntityType = "customers"
	EntityContracts EntityType = "contracts"
	EntityInvoices  EntityType = "invoices"
	EntityPayments  EntityType = "payments"
	EntityVehicles  EntityType = "vehicles"
)

// Operation is the aggregate requested.
type Operation string

const (
	OpCount Operation = "count"
	OpSum   Operation = "sum"
	OpList  Operation = "list"
)

// FilterOperator compares a column with a value.
type FilterOperator string

const (
	FilterEq  FilterOperator = "eq"
	FilterNe  FilterOperator = "ne"
	FilterGte FilterOperator = "gte"
	FilterLt  FilterOperator = "lt"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Query is a parsed numerical question. Filters are equality predicates keyed
// by column; Timeframe adds a date range on the strategy's date column.
type Query struct {
	EntityType EntityType             `json:"entity_type"`
	Operation  Operation              `json:"query_type"`
	Filters    map[string]interface{} `json:"filters"`
	// Exclusions holds negated qualifiers: rows whose column equals the
	// value are left out. A missing or NULL column does not equal it.
	Exclusions map[string]interface{} `json:"exclusions,omitempty"`
	Timeframe  string                 `json:"timeframe,omitempty"`
	Pattern    string                 `json:"pattern,omitempty"`
	Limit      int                    `json:"limit,omitempty"`
}

// Result is the one-shot outcome of executing a Query.
type Result struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Rows        []Row   `json:"rows,omitempty"`
	Query       Query   `json:"query"`
}

// Predicate is one column comparison passed to the data store.
type Predicate struct {
	Column   string         `json:"column"`
	Operator FilterOperator `json:"operator"`
	Value    interface{}    `json:"value"`
}

// Row is one record returned by the data store.
type Row map[string]interface{}

// DataStore is the row-level access the handler needs. Table and column names
// come from the registered strategies, never from user text.
type DataStore interface {
	// Count returns the number of rows matching every predicate.
	Count(ctx context.Context, table string, filters []Predicate) (int64, error)
	// Sum adds column over the rows matching every predicate.
	Sum(ctx context.Context, table, column string, filters []Predicate) (float64, error)
	// Query returns up to limit matching rows.
	Query(ctx context.Context, table string, filters []Predicate, limit int) ([]Row, error)
}

// DateRange is a half-open [From, To) interval.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

//Personal.AI order the ending
