package static

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	devenv "corde-harvester/dev/env"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errWebpageNotFound = badger.ErrKeyNotFound

type webpage struct {
	Contents  []byte
	ExpiresAt int64
}

// webpageCache stores fetched result pages keyed by their normalized URL.
// A nil db disables it.
type webpageCache struct {
	db       *badger.DB
	lifetime time.Duration
	now      func() time.Time
}

func (c webpageCache) key(target *url.URL) string {
	return purell.NormalizeURL(
		target,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
}

func (c webpageCache) get(ctx context.Context, target *url.URL) (webpage, error) {
	if c.db == nil {
		return webpage{}, errWebpageNotFound
	}

	_, span := tracer.Start(ctx, "cache:get")
	defer span.End()

	key := c.key(target)
	span.SetAttributes(attribute.String("cache_key", key))

	var cached webpage
	err := c.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(key))
		if err != nil {
			return err
		}
		serialized, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return webpage{}, errWebpageNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cached page")
		return webpage{}, err
	}

	if c.now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))
		err = c.db.Update(func(tx *badger.Txn) error {
			return tx.Delete([]byte(key))
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return webpage{}, errWebpageNotFound
	}

	span.SetAttributes(attribute.Int("content_length", len(cached.Contents)))
	return cached, nil
}

func (c webpageCache) set(ctx context.Context, target *url.URL, contents []byte) error {
	if c.db == nil {
		return nil
	}

	_, span := tracer.Start(ctx, "cache:set")
	defer span.End()

	key := c.key(target)
	span.SetAttributes(attribute.String("cache_key", key))

	serialized := bytes.NewBuffer(nil)
	err := gob.NewEncoder(serialized).Encode(webpage{
		Contents:  contents,
		ExpiresAt: c.now().Add(c.lifetime).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize webpage")
		return err
	}

	err = c.db.Update(func(tx *badger.Txn) error {
		return tx.Set([]byte(key), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}

func (c webpageCache) evict(ctx context.Context, target *url.URL) error {
	if c.db == nil {
		return nil
	}
	return c.db.Update(func(tx *badger.Txn) error {
		return tx.Delete([]byte(c.key(target)))
	})
}

// OpenCache opens (or creates) a badger page cache in dir, which may start
// with devenv.StatePrefix. An empty dir opens an in-memory cache.
func OpenCache(dir string) (*badger.DB, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}
