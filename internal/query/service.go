// Package query serves run-graphql tasks from the persisted store. The
// query body is a read-only SELECT over the store's tables; results
// render as canonical JSON so transcripts stay byte-stable.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/movekit/transcheck/internal/canon"
	"github.com/movekit/transcheck/internal/ledger"
	"github.com/movekit/transcheck/internal/store"
)

// ServiceVersion is reported for --show-service-version tasks.
const ServiceVersion = "transcheck-query/1"

// Service implements ledger.QueryService over the SQLite store.
type Service struct {
	store *store.Store
}

// NewService wraps a store.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// Query executes one read query. Every query gets a deterministic
// ORDER BY: unordered result sets would make golden files flaky.
func (s *Service) Query(ctx context.Context, body string, opts ledger.QueryOptions) (*ledger.QueryResponse, error) {
	sqlText := strings.TrimSpace(body)
	if sqlText == "" {
		return nil, fmt.Errorf("empty query")
	}
	if !strings.HasPrefix(strings.ToUpper(sqlText), "SELECT") {
		return nil, fmt.Errorf("only SELECT queries are supported")
	}
	if !strings.Contains(strings.ToUpper(sqlText), "ORDER BY") {
		sqlText += " ORDER BY 1"
	}

	rows, err := s.store.Query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	var results []any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalize(vals[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	encoded, err := canon.Marshal(map[string]any{"data": results})
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	resp := &ledger.QueryResponse{Body: string(encoded)}
	if opts.ShowHeaders {
		resp.Headers = []string{"content-type: application/json"}
	}
	if opts.ShowServiceVersion {
		resp.ServiceVersion = ServiceVersion
	}
	if opts.ShowUsage {
		resp.Usage = fmt.Sprintf("rows: %d", len(results))
	}
	return resp, nil
}

// normalize maps driver values onto the canonical encoder's input set.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case int64:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
