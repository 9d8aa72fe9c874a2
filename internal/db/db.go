package db

import (
	"context"
	"database/sql"
	"fmt"

	"pdf-quiz/internal/config"
	"pdf-quiz/internal/models"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            string            `bun:"id,pk"`
	Namespace     string            `bun:"namespace,notnull"`
	Content       string            `bun:"content,notnull"`
	Metadata      map[string]string `bun:"metadata,type:jsonb"`
	Embedding     Vector            `bun:"embedding,notnull,type:vector"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with the configured driver: bun's
// pgdriver or lib/pq ("postgres").
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "postgres":
		return sql.Open("postgres", cfg.DSN)
	default:
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	}
}

func InitDB(ctx context.Context, db *bun.DB, vectorSize int) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	// the vector width is only known at runtime, so the table is created by hand
	_, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
	id text PRIMARY KEY,
	namespace text NOT NULL,
	content text NOT NULL,
	metadata jsonb,
	embedding vector(%d) NOT NULL
)`, vectorSize))
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	_, err = db.NewCreateIndex().
		Model((*Document)(nil)).
		Index("documents_namespace_idx").
		Column("namespace").
		IfNotExists().
		Exec(ctx)
	return err
}

// Store is the pgvector implementation of the vector store.
type Store struct {
	db         *bun.DB
	vectorSize int
}

func NewStore(db *bun.DB, vectorSize int) *Store {
	return &Store{db: db, vectorSize: vectorSize}
}

// Reset drops the documents table and creates it again empty.
func (s *Store) Reset(ctx context.Context) error {
	if err := DropDocuments(ctx, s.db); err != nil {
		return fmt.Errorf("failed to drop documents: %w", err)
	}
	log.Info().Msg("Dropped documents table")
	return InitDB(ctx, s.db, s.vectorSize)
}

func (s *Store) Upsert(ctx context.Context, namespace string, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			ID:        r.ID,
			Namespace: namespace,
			Content:   r.Content,
			Metadata:  r.Metadata,
			Embedding: Vector(r.Embedding),
		}
	}
	_, err := s.db.NewInsert().
		Model(&docs).
		On("CONFLICT (id) DO UPDATE").
		Set("namespace = EXCLUDED.namespace").
		Set("content = EXCLUDED.content").
		Set("metadata = EXCLUDED.metadata").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}
	log.Info().Str("namespace", namespace).Int("documents", len(docs)).Msg("Upserted documents")
	return nil
}

func (s *Store) DeleteNamespace(ctx context.Context, namespace string) error {
	res, err := s.db.NewDelete().
		Model((*Document)(nil)).
		Where("namespace = ?", namespace).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete namespace %s: %w", namespace, err)
	}
	n, _ := res.RowsAffected()
	log.Info().Str("namespace", namespace).Int64("documents", n).Msg("Deleted namespace")
	return nil
}

func (s *Store) Query(ctx context.Context, namespace string, vector []float32, k int) ([]models.VectorRecord, error) {
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Where("namespace = ?", namespace).
		OrderExpr("embedding <-> ?", Vector(vector)).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	records := make([]models.VectorRecord, len(docs))
	for i, d := range docs {
		records[i] = models.VectorRecord{
			ID:        d.ID,
			Namespace: d.Namespace,
			Content:   d.Content,
			Metadata:  d.Metadata,
			Embedding: []float32(d.Embedding),
		}
	}
	return records, nil
}

// drop table documents
func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}
