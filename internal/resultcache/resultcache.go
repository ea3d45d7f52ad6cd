// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package resultcache memoizes resolver.Resolve outcomes in an embedded
// BadgerDB, keyed on the combination of the tool catalog's corpus hash and
// the utterance text. This is purely additive: a miss or a storage error
// falls through to a live resolve, never blocks one. The key scheme and
// TTL-by-native-GC approach follow
// services/trace/agent/routing/router_cache.go's embedding cache, adapted
// from caching tool embedding vectors to caching resolved call lists.
package resultcache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/switchchat/toolrouter/internal/calltypes"
)

// defaultTTL mirrors the router cache's 7-day lifetime: long enough to
// survive a weekend, short enough that a tool catalog change doesn't linger
// as stale cached output forever even if its corpus hash were ever to
// collide.
const defaultTTL = 7 * 24 * time.Hour

// keyPrefix versions the storage layout so a future format change can't
// collide with entries written by an older binary.
const keyPrefix = "resolve/v1/"

var errMiss = errors.New("resultcache: miss")

// cachedResult is the gob-encoded payload stored per key. Result itself
// isn't used directly because calltypes.Value's custom MarshalJSON has no
// gob equivalent — gob round-trips the struct fields directly, which is
// exactly what's wanted here.
type cachedResult struct {
	Calls           []calltypes.Call
	TotalTimeMs     int64
	Confidence      float64
	Source          calltypes.Source
	LocalConfidence float64
}

// Store persists and retrieves memoized resolve outcomes. A nil *Store is
// valid and behaves as an always-miss, always-succeeds-silently cache, so
// callers can wire an optional cache without a nil check at every call
// site.
type Store struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// Open opens (creating if absent) a BadgerDB at dir and returns a Store
// backed by it. The caller owns the returned Store's lifecycle and must
// call Close when done.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("resultcache: opening badger at %s: %w", dir, err)
	}
	return &Store{db: db, ttl: defaultTTL, logger: logger}, nil
}

// Close releases the underlying BadgerDB.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get looks up a previously cached Result for (corpusHash, utterance).
// Returns (Result{}, false, nil) on a clean miss, (Result{}, false, err) on
// a storage or decode failure, and (result, true, nil) on a hit.
func (s *Store) Get(ctx context.Context, corpusHash, utterance string) (calltypes.Result, bool, error) {
	if s == nil || s.db == nil {
		return calltypes.Result{}, false, nil
	}
	key := cacheKey(corpusHash, utterance)

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errMiss
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, errMiss) {
		return calltypes.Result{}, false, nil
	}
	if err != nil {
		return calltypes.Result{}, false, fmt.Errorf("resultcache: get: %w", err)
	}

	var cr cachedResult
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&cr); err != nil {
		return calltypes.Result{}, false, fmt.Errorf("resultcache: decode: %w", err)
	}
	s.logger.Debug("resultcache hit", slog.String("key", shortKey(corpusHash)))
	return calltypes.Result{
		FunctionCalls:   cr.Calls,
		TotalTimeMs:     cr.TotalTimeMs,
		Confidence:      cr.Confidence,
		Source:          cr.Source,
		LocalConfidence: cr.LocalConfidence,
	}, true, nil
}

// Put stores result under (corpusHash, utterance) with the store's TTL. A
// storage failure here is non-fatal to the caller's request — it should be
// logged and swallowed, never surfaced as a resolve failure.
func (s *Store) Put(ctx context.Context, corpusHash, utterance string, result calltypes.Result) error {
	if s == nil || s.db == nil {
		return nil
	}
	cr := cachedResult{
		Calls:           result.FunctionCalls,
		TotalTimeMs:     result.TotalTimeMs,
		Confidence:      result.Confidence,
		Source:          result.Source,
		LocalConfidence: result.LocalConfidence,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cr); err != nil {
		return fmt.Errorf("resultcache: encode: %w", err)
	}

	key := cacheKey(corpusHash, utterance)
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("resultcache: put: %w", err)
	}
	return nil
}

// CorpusHash hashes a tool catalog deterministically: sorted by name so
// catalog.Merge's ordering (or a caller's own ordering) never changes the
// hash, only the actual tool set does.
func CorpusHash(tools []calltypes.Tool) string {
	sorted := make([]calltypes.Tool, len(tools))
	copy(sorted, tools)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha256.New()
	for _, t := range sorted {
		params := make([]string, 0, len(t.Parameters.Properties))
		for name, p := range t.Parameters.Properties {
			params = append(params, name+":"+string(p.Type))
		}
		sort.Strings(params)
		required := append([]string{}, t.Parameters.Required...)
		sort.Strings(required)
		fmt.Fprintf(h, "%s\t%s\t%v\t%v\n", t.Name, t.Description, params, required)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cacheKey(corpusHash, utterance string) []byte {
	h := sha256.Sum256([]byte(corpusHash + "|" + utterance))
	return []byte(keyPrefix + hex.EncodeToString(h[:]))
}

func shortKey(corpusHash string) string {
	if len(corpusHash) > 8 {
		return corpusHash[:8] + "..."
	}
	return corpusHash
}
