package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeblew999/geovisor/internal/metrics"
)

// ErrNoDatabase is returned when an export is requested without DuckDB.
var ErrNoDatabase = errors.New("database not available")

// Export formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// ExportService writes the projected vertices of source files to DuckDB
// tables and copies them to CSV or Parquet files.
type ExportService struct {
	db         *sql.DB
	sources    *SourceService
	conversion *ConversionService
	exportsDir string
	bus        *EventBus
	logger     *slog.Logger
}

// NewExportService creates an export service writing to <dataDir>/exports.
// db may be nil, in which case every export fails with ErrNoDatabase.
func NewExportService(db *sql.DB, dataDir string, sources *SourceService, conversion *ConversionService, bus *EventBus, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		db:         db,
		sources:    sources,
		conversion: conversion,
		exportsDir: filepath.Join(dataDir, "exports"),
		bus:        bus,
		logger:     logger,
	}
}

// ExportsDir returns the path to the exports directory.
func (s *ExportService) ExportsDir() string {
	return s.exportsDir
}

// Export projects every vertex of req.Source and writes the rows out.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (ExportResult, error) {
	start := time.Now()

	format := strings.ToLower(req.Format)
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatParquet {
		return ExportResult{}, fmt.Errorf("unsupported export format %q", req.Format)
	}

	name := req.Name
	if name == "" {
		name = strings.TrimSuffix(req.Source, filepath.Ext(req.Source))
	}
	table := generateID(name)
	if table == "" {
		return ExportResult{}, fmt.Errorf("export name %q has no usable characters", name)
	}
	if s.db == nil {
		return ExportResult{}, ErrNoDatabase
	}

	fc, err := s.sources.Read(req.Source)
	if err != nil {
		return ExportResult{}, err
	}
	rows, err := s.conversion.ProjectFeatures(fc, req.System)
	if err != nil {
		return ExportResult{}, fmt.Errorf("project %s: %w", req.Source, err)
	}

	if err := s.writeTable(ctx, table, rows); err != nil {
		return ExportResult{}, fmt.Errorf("write table %s: %w", table, err)
	}

	if err := os.MkdirAll(s.exportsDir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create exports directory: %w", err)
	}
	path := filepath.Join(s.exportsDir, table+"."+format)
	copySQL := fmt.Sprintf("COPY %s TO %s (FORMAT %s)", quoteIdent(table), quoteLiteral(path), strings.ToUpper(format))
	if format == FormatCSV {
		copySQL = fmt.Sprintf("COPY %s TO %s (FORMAT CSV, HEADER)", quoteIdent(table), quoteLiteral(path))
	}
	if _, err := s.db.ExecContext(ctx, copySQL); err != nil {
		return ExportResult{}, fmt.Errorf("copy %s: %w", table, err)
	}

	metrics.ExportRows.WithLabelValues(format).Add(float64(len(rows)))
	metrics.ExportDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	s.logger.Info("export written", "source", req.Source, "table", table, "path", path,
		"features", len(fc.Features), "rows", len(rows), "duration", time.Since(start))
	if s.bus != nil {
		s.bus.Publish(Event{Resource: "exports", Action: "created", ID: table})
	}

	return ExportResult{
		Table:    table,
		Path:     path,
		Format:   format,
		Features: len(fc.Features),
		Rows:     len(rows),
	}, nil
}

const createVertexTable = `CREATE OR REPLACE TABLE %s (
	feature_id VARCHAR,
	vertex     INTEGER,
	lat        DOUBLE,
	lng        DOUBLE,
	dms        VARCHAR,
	easting    DOUBLE,
	northing   DOUBLE,
	zone       VARCHAR,
	epsg       VARCHAR,
	distance_m DOUBLE
)`

func (s *ExportService) writeTable(ctx context.Context, table string, rows []VertexRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(createVertexTable, quoteIdent(table))); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", quoteIdent(table)))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.FeatureID, r.Vertex, r.Lat, r.Lng, r.DMS,
			r.Easting, r.Northing, r.Zone, r.EPSG, r.Distance); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Tables lists the DuckDB tables.
func (s *ExportService) Tables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrNoDatabase
	}
	rows, err := s.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ErrNotReadOnly is returned by Query for statements that could modify data.
var ErrNotReadOnly = errors.New("only a single SELECT, WITH, DESCRIBE or SUMMARIZE statement is allowed")

// QueryResult holds the rows of an ad-hoc query.
type QueryResult struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query runs a single read-only statement, typically against an export
// table, and returns at most limit rows. The statement runs in a transaction
// that is always rolled back.
func (s *ExportService) Query(ctx context.Context, query string, limit int) (QueryResult, error) {
	if s.db == nil {
		return QueryResult{}, ErrNoDatabase
	}
	stmts := splitStatements(query)
	if len(stmts) != 1 {
		return QueryResult{}, ErrNotReadOnly
	}
	fields := strings.Fields(stmts[0])
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "DESCRIBE", "SUMMARIZE":
	default:
		return QueryResult{}, ErrNotReadOnly
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return QueryResult{}, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, stmts[0])
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, err
	}

	results := []map[string]any{}
	for rows.Next() && (limit <= 0 || len(results) < limit) {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return QueryResult{}, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Columns: columns, Rows: results, Count: len(results)}, nil
}

// splitStatements splits query on semicolons outside string literals,
// quoted identifiers and comments. Comments and empty statements are dropped.
func splitStatements(query string) []string {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if stmt := strings.TrimSpace(cur.String()); stmt != "" {
			stmts = append(stmts, stmt)
		}
		cur.Reset()
	}
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			end := i + 1
			for end < len(query) {
				if query[end] == c {
					// Doubled quotes escape themselves.
					if end+1 < len(query) && query[end+1] == c {
						end += 2
						continue
					}
					break
				}
				end++
			}
			end = min(end, len(query)-1)
			cur.WriteString(query[i : end+1])
			i = end
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			for i < len(query) && query[i] != '\n' {
				i++
			}
			cur.WriteByte(' ')
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				i = len(query)
			} else {
				i += end + 3
			}
			cur.WriteByte(' ')
		case c == ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return stmts
}

// generateID creates a SQL and file-name safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(name)
	id = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(id)
	// Remove any characters that aren't alphanumeric or underscore
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
