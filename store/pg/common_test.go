package pg

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gclaussn/go-bpmn-diagram/store"
	"github.com/jackc/pgx/v5"
)

func mustCreateStore(t *testing.T, customizers ...func(*Options)) store.Store {
	if testing.Short() {
		t.Skip()
	}

	databaseUrl := os.Getenv("GO_BPMN_DIAGRAM_TEST_DATABASE_URL")
	if databaseUrl == "" {
		t.Skip("GO_BPMN_DIAGRAM_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseUrl)
	if err != nil {
		t.Fatalf("failed to establish database connection: %v", err)
	}

	defer conn.Close(ctx)

	databaseSchema := fmt.Sprintf("test_store_%s", strings.Replace(time.Now().Format("20060102150405.000"), ".", "", 1))
	if _, err := conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", databaseSchema)); err != nil {
		t.Fatalf("failed to create database schema: %v", err)
	}

	databaseUrl = fmt.Sprintf("%s?search_path=%s", databaseUrl, databaseSchema)

	s, err := New(databaseUrl, customizers...)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	t.Cleanup(s.Shutdown)
	return s
}

func mustCreateDiagram(t *testing.T, s store.Store, name string) store.Diagram {
	diagram, err := s.CreateDiagram(context.Background(), store.CreateDiagramCmd{
		Name:         name,
		SourceXml:    "<definitions/>",
		OutputXml:    "<mxfile/>",
		WarningCount: 1,
	})
	if err != nil {
		t.Fatalf("failed to create diagram: %v", err)
	}

	return diagram
}
