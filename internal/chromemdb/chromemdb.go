package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"pdf-quiz/internal/models"
)

const exportExt = ".chromem"

// VectorDBManager keeps one chromem collection per namespace.
type VectorDBManager struct {
	db            *chromem.DB
	dbPath        string
	inMemory      bool
	compress      bool
	encryptionKey string

	mu sync.Mutex
}

// NewVectorDBManager initializes a new vector database manager
func NewVectorDBManager(dbPath string, inMemory, compress bool, encryptionKey string) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	m := &VectorDBManager{
		db:            db,
		dbPath:        dbPath,
		inMemory:      inMemory,
		compress:      compress,
		encryptionKey: encryptionKey,
	}
	if m.exports() {
		if err := m.loadExports(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// exports reports whether collections are mirrored to encrypted files.
func (m *VectorDBManager) exports() bool {
	return m.inMemory && m.encryptionKey != "" && m.dbPath != ""
}

// loadExports imports every namespace previously written by Export.
func (m *VectorDBManager) loadExports() error {
	files, err := filepath.Glob(filepath.Join(m.dbPath, "*"+exportExt))
	if err != nil {
		return err
	}
	for _, f := range files {
		namespace := strings.TrimSuffix(filepath.Base(f), exportExt)
		if err := m.Import(namespace); err != nil {
			return err
		}
		log.Info().Str("namespace", namespace).Str("file", f).Msg("Imported collection")
	}
	return nil
}

// create or read collection
func (m *VectorDBManager) getOrCreateCollection(namespace string) (*chromem.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return c, nil
}

// Upsert adds records to the namespace collection, replacing any with
// the same id.
func (m *VectorDBManager) Upsert(ctx context.Context, namespace string, records []models.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	c, err := m.getOrCreateCollection(namespace)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	log.Info().Str("namespace", namespace).Int("documents", len(docs)).Msg("Upserted documents")

	if m.exports() {
		return m.Export(namespace)
	}
	return nil
}

// DeleteNamespace drops the namespace collection. Deleting an unknown
// namespace is a no-op.
func (m *VectorDBManager) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.db.DeleteCollection(namespace); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if m.exports() {
		if err := os.Remove(m.exportPath(namespace)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove export: %w", err)
		}
	}
	log.Info().Str("namespace", namespace).Msg("Deleted namespace")
	return nil
}

// Reset drops every namespace.
func (m *VectorDBManager) Reset(ctx context.Context) error {
	m.mu.Lock()
	var namespaces []string
	for name := range m.db.ListCollections() {
		namespaces = append(namespaces, name)
	}
	m.mu.Unlock()

	for _, ns := range namespaces {
		if err := m.DeleteNamespace(ctx, ns); err != nil {
			return err
		}
	}
	log.Info().Int("namespaces", len(namespaces)).Msg("Reset vector store")
	return nil
}

// Query returns up to k records nearest to vector within namespace.
func (m *VectorDBManager) Query(ctx context.Context, namespace string, vector []float32, k int) ([]models.VectorRecord, error) {
	c, err := m.getOrCreateCollection(namespace)
	if err != nil {
		return nil, err
	}
	k = min(k, c.Count())
	if k <= 0 {
		return nil, nil
	}

	results, err := c.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	records := make([]models.VectorRecord, len(results))
	for i, r := range results {
		records[i] = models.VectorRecord{
			ID:        r.ID,
			Namespace: namespace,
			Content:   r.Content,
			Embedding: r.Embedding,
			Metadata:  r.Metadata,
		}
	}
	return records, nil
}

// Export writes the namespace collection to an encrypted file next to
// the database path.
func (m *VectorDBManager) Export(namespace string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if m.dbPath == "" {
		return fmt.Errorf("db path is required")
	}

	filePath := m.exportPath(namespace)
	log.Debug().Str("namespace", namespace).Str("file", filePath).Bool("compress", m.compress).Msg("Exporting collection")
	if err := m.db.ExportToFile(filePath, m.compress, m.encryptionKey, namespace); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads a collection previously written by Export.
func (m *VectorDBManager) Import(namespace string) error {
	if err := m.db.ImportFromFile(m.exportPath(namespace), m.encryptionKey, namespace); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}

func (m *VectorDBManager) exportPath(namespace string) string {
	return filepath.Join(m.dbPath, namespace+exportExt)
}
