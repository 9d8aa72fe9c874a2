package vectorstore

import (
	"context"
	"fmt"

	"pdf-quiz/internal/chromemdb"
	"pdf-quiz/internal/config"
	"pdf-quiz/internal/db"
	"pdf-quiz/internal/models"

	"github.com/rs/zerolog/log"
)

// Store keeps embedded chunks grouped by namespace.
type Store interface {
	// Upsert inserts records, replacing any with the same id.
	Upsert(ctx context.Context, namespace string, records []models.VectorRecord) error
	// DeleteNamespace removes every record in namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
	// Query returns at most k records of namespace nearest to vector.
	Query(ctx context.Context, namespace string, vector []float32, k int) ([]models.VectorRecord, error)
}

// Resetter is implemented by stores that can drop every namespace at once.
type Resetter interface {
	Reset(ctx context.Context) error
}

var (
	_ Store    = (*chromemdb.VectorDBManager)(nil)
	_ Store    = (*db.Store)(nil)
	_ Resetter = (*chromemdb.VectorDBManager)(nil)
	_ Resetter = (*db.Store)(nil)
)

// New opens the backend named by cfg.VectorStore.Backend. The returned
// close func releases the backend and is never nil.
func New(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	switch cfg.VectorStore.Backend {
	case "postgres":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		bunDB := db.NewDB(sqldb, cfg.Database.Debug)
		if err := db.InitDB(ctx, bunDB, cfg.Database.VectorSize); err != nil {
			bunDB.Close()
			return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("Using postgres vector store")
		return db.NewStore(bunDB, cfg.Database.VectorSize), bunDB.Close, nil
	default:
		vs := cfg.VectorStore
		m, err := chromemdb.NewVectorDBManager(vs.Path, vs.InMemory, vs.Compress, vs.EncryptionKey)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", vs.Path).Bool("in_memory", vs.InMemory).Msg("Using chromem vector store")
		return m, func() error { return nil }, nil
	}
}
