// Package pg provides a store implementation backed by a PostgreSQL database.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func New(databaseUrl string, customizers ...func(*Options)) (store.Store, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = "go-bpmn-diagram"
	}

	pgPoolCtx, pgPoolCancel := context.WithTimeout(context.Background(), options.Timeout)
	defer pgPoolCancel()

	pgPool, err := pgxpool.NewWithConfig(pgPoolCtx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	pgStore := pgStore{
		pgPool: pgPool,

		defaultQueryLimit: options.DefaultQueryLimit,
		timeout:           options.Timeout,
	}

	if err := pgStore.prepareDatabase(); err != nil {
		pgStore.Shutdown()
		return nil, fmt.Errorf("failed to prepare database: %v", err)
	}

	return &pgStore, nil
}

func NewOptions() Options {
	return Options{
		DefaultQueryLimit: 1000,
		Timeout:           30 * time.Second,
	}
}

type Options struct {
	DefaultQueryLimit int           // Maximum number of diagrams, returned by a listing without explicit limit.
	Timeout           time.Duration // Time limit for database statements, utilized when the provided context has no deadline.
}

func (o Options) Validate() error {
	if o.DefaultQueryLimit <= 0 {
		return errors.New("default query limit must be positive")
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

type pgStore struct {
	pgPool *pgxpool.Pool

	defaultQueryLimit int
	timeout           time.Duration
}

func (s *pgStore) prepareDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// seq determines the listing order, since created_at is not guaranteed to be unique
	_, err := s.pgPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS diagram (
	id TEXT PRIMARY KEY,
	seq BIGSERIAL,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	source_xml TEXT NOT NULL,
	output_xml TEXT NOT NULL,
	warning_count INTEGER NOT NULL
)
`)
	if err != nil {
		return err
	}

	_, err = s.pgPool.Exec(ctx, "CREATE INDEX IF NOT EXISTS diagram_seq_idx ON diagram (seq DESC)")
	return err
}

// withDeadline applies the configured timeout, when the provided context has no deadline.
func (s *pgStore) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *pgStore) CreateDiagram(ctx context.Context, cmd store.CreateDiagramCmd) (store.Diagram, error) {
	if err := cmd.Validate(); err != nil {
		return store.Diagram{}, err
	}

	diagram := store.Diagram{
		Id:           uuid.NewString(),
		Name:         cmd.Name,
		CreatedAt:    time.Now().UTC(),
		SourceXml:    cmd.SourceXml,
		OutputXml:    cmd.OutputXml,
		WarningCount: cmd.WarningCount,
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	_, err := s.pgPool.Exec(ctx, `
INSERT INTO diagram (
	id,
	name,
	created_at,
	source_xml,
	output_xml,
	warning_count
) VALUES (
	$1,
	$2,
	$3,
	$4,
	$5,
	$6
)
`,
		diagram.Id,
		diagram.Name,
		diagram.CreatedAt,
		diagram.SourceXml,
		diagram.OutputXml,
		diagram.WarningCount,
	)
	if err != nil {
		return store.Diagram{}, fmt.Errorf("failed to insert diagram %s: %v", diagram.Id, err)
	}

	return diagram, nil
}

func (s *pgStore) GetDiagram(ctx context.Context, id string) (store.Diagram, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	row := s.pgPool.QueryRow(ctx, `
SELECT
	id,
	name,
	created_at,
	source_xml,
	output_xml,
	warning_count
FROM
	diagram
WHERE
	id = $1
`, id)

	var diagram store.Diagram
	if err := row.Scan(
		&diagram.Id,
		&diagram.Name,
		&diagram.CreatedAt,
		&diagram.SourceXml,
		&diagram.OutputXml,
		&diagram.WarningCount,
	); err != nil {
		if err == pgx.ErrNoRows {
			return store.Diagram{}, store.ErrNotFound
		}
		return store.Diagram{}, fmt.Errorf("failed to select diagram %s: %v", id, err)
	}

	return diagram, nil
}

func (s *pgStore) ListDiagrams(ctx context.Context, criteria store.DiagramCriteria) ([]store.Diagram, error) {
	limit := criteria.Limit
	if limit <= 0 {
		limit = s.defaultQueryLimit
	}

	var sql strings.Builder
	sql.WriteString(`
SELECT
	id,
	name,
	created_at,
	warning_count
FROM
	diagram
`)

	var args []any
	if criteria.Name != "" {
		args = append(args, "%"+criteria.Name+"%")
		sql.WriteString(fmt.Sprintf("WHERE\n\tname ILIKE $%d\n", len(args)))
	}

	sql.WriteString("ORDER BY\n\tseq DESC\n")

	args = append(args, limit)
	sql.WriteString(fmt.Sprintf("LIMIT $%d ", len(args)))

	args = append(args, criteria.Offset)
	sql.WriteString(fmt.Sprintf("OFFSET $%d", len(args)))

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	rows, err := s.pgPool.Query(ctx, sql.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select diagrams: %v", err)
	}

	defer rows.Close()

	diagrams := []store.Diagram{}
	for rows.Next() {
		var diagram store.Diagram
		if err := rows.Scan(
			&diagram.Id,
			&diagram.Name,
			&diagram.CreatedAt,
			&diagram.WarningCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan diagram: %v", err)
		}

		diagrams = append(diagrams, diagram)
	}

	return diagrams, rows.Err()
}

func (s *pgStore) DeleteDiagram(ctx context.Context, id string) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	commandTag, err := s.pgPool.Exec(ctx, "DELETE FROM diagram WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete diagram %s: %v", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	return nil
}

func (s *pgStore) Shutdown() {
	s.pgPool.Close()
}
