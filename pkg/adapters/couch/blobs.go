// Package couch stores document payloads in a CouchDB database.
package couch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"github.com/aretw0/anotes/pkg/core"
)

// blobDoc is the CouchDB shape of a stored payload.
type blobDoc struct {
	ID   string `json:"_id"`
	Rev  string `json:"_rev,omitempty"`
	Data string `json:"data"`
}

// Config holds the connection settings.
type Config struct {
	URL    string
	DB     string
	Logger *slog.Logger
}

// BlobStore implements core.BlobStore, one CouchDB document per blob key.
type BlobStore struct {
	client *kivik.Client
	dbName string
	logger *slog.Logger
}

// Open connects to CouchDB and creates the database when it does not exist.
func Open(ctx context.Context, config Config) (*BlobStore, error) {
	client, err := kivik.New("couch", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to couchdb: %w", err)
	}

	exists, err := client.DBExists(ctx, config.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, config.DB); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", config.DB, err)
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("couchdb blob store ready", "db", config.DB)

	return &BlobStore{client: client, dbName: config.DB, logger: logger}, nil
}

// Close releases the client connection.
func (b *BlobStore) Close() error {
	return b.client.Close()
}

func (b *BlobStore) Put(ctx context.Context, key, data string) error {
	db := b.client.DB(b.dbName)

	doc := blobDoc{ID: key, Data: data}
	rev, err := b.rev(ctx, key)
	if err != nil {
		return err
	}
	doc.Rev = rev

	if _, err := db.Put(ctx, key, doc); err != nil {
		return fmt.Errorf("failed to put blob %s: %w", key, err)
	}
	return nil
}

func (b *BlobStore) Get(ctx context.Context, key string) (string, error) {
	var doc blobDoc
	if err := b.client.DB(b.dbName).Get(ctx, key).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", core.ErrNotFound, key)
		}
		return "", fmt.Errorf("failed to get blob %s: %w", key, err)
	}
	return doc.Data, nil
}

func (b *BlobStore) Delete(ctx context.Context, key string) error {
	rev, err := b.rev(ctx, key)
	if err != nil {
		return err
	}
	if rev == "" {
		return nil
	}
	if _, err := b.client.DB(b.dbName).Delete(ctx, key, rev); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

// rev returns the current revision of key, or "" when it does not exist.
func (b *BlobStore) rev(ctx context.Context, key string) (string, error) {
	rev, err := b.client.DB(b.dbName).GetRev(ctx, key)
	if err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("failed to read revision of %s: %w", key, err)
	}
	return rev, nil
}

var _ core.BlobStore = (*BlobStore)(nil)
