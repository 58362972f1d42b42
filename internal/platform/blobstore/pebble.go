package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

const (
	metaPrefix    = "m/"
	contentPrefix = "c/"
)

// PebbleStore keeps blobs in a local pebble database. Metadata and content
// are written in one batch so a reader never sees one without the other.
type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(dir string) (*PebbleStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

func (p *PebbleStore) Close() error { return p.db.Close() }

func (p *PebbleStore) Put(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	meta, data, err := prepare(meta, content)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Set([]byte(metaPrefix+meta.Key), encoded, nil); err != nil {
		return nil, err
	}
	if err := b.Set([]byte(contentPrefix+meta.Key), data, nil); err != nil {
		return nil, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return nil, fmt.Errorf("commit blob %s: %w", meta.Key, err)
	}

	out := meta
	return &out, nil
}

// read copies the value for key; pebble's buffer is only valid until the
// closer is closed.
func (p *PebbleStore) read(key string) ([]byte, error) {
	v, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (p *PebbleStore) Stat(_ context.Context, key string) (*Metadata, error) {
	raw, err := p.read(metaPrefix + key)
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", key, err)
	}
	return &meta, nil
}

func (p *PebbleStore) Get(ctx context.Context, key string) (io.ReadCloser, *Metadata, error) {
	meta, err := p.Stat(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	data, err := p.read(contentPrefix + key)
	if err != nil {
		return nil, nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), meta, nil
}

func (p *PebbleStore) Delete(ctx context.Context, key string) error {
	if _, err := p.Stat(ctx, key); err != nil {
		return err
	}
	b := p.db.NewBatch()
	defer b.Close()
	if err := b.Delete([]byte(metaPrefix+key), nil); err != nil {
		return err
	}
	if err := b.Delete([]byte(contentPrefix+key), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}
