// Package storage publishes the IndexNow key file to blob storage so that
// statically hosted sites can serve it next to their content.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// KeyFileContentType is the media type of a published key file.
const KeyFileContentType = "text/plain; charset=utf-8"

// ObjectStore writes a single object and returns its URI.
type ObjectStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// KeyPublisher uploads `{prefix}{key}.txt` containing the key and a newline.
type KeyPublisher struct {
	store  ObjectStore
	prefix string
	logger *zap.Logger
}

// NewKeyPublisher validates its inputs and returns a KeyPublisher.
func NewKeyPublisher(store ObjectStore, prefix string, logger *zap.Logger) (*KeyPublisher, error) {
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyPublisher{store: store, prefix: prefix, logger: logger}, nil
}

// ObjectPath returns the object name used for key.
func (p *KeyPublisher) ObjectPath(key string) string {
	prefix := strings.TrimLeft(p.prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + key + ".txt"
}

// Publish writes the key file and returns the URI reported by the store.
func (p *KeyPublisher) Publish(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("indexnow api key is empty")
	}
	if strings.ContainsAny(key, "/\\") {
		return "", fmt.Errorf("indexnow api key %q contains a path separator", key)
	}
	path := p.ObjectPath(key)
	uri, err := p.store.PutObject(ctx, path, KeyFileContentType, strings.NewReader(key+"\n"))
	if err != nil {
		return "", fmt.Errorf("publish key file %s: %w", path, err)
	}
	p.logger.Info("Published IndexNow key file", zap.String("uri", uri))
	return uri, nil
}
