package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matthewbaird/formbuilder/internal/store"
)

// Entry is one recorded builder event.
type Entry struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	Module     string          `json:"module"`
	OccurredAt time.Time       `json:"occurredAt"`
	Summary    string          `json:"summary"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Store is the interface for reading and writing activity entries.
type Store interface {
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByModule returns the history of one module, newest first.
	QueryByModule(ctx context.Context, module string, opts QueryOptions) (entries []Entry, nextCursor string, totalCount int, err error)

	// Search matches summaries case-insensitively, newest first.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []Entry, totalCount int, err error)
}

// Bucket is the KV bucket KVStore writes to.
const Bucket = "activity"

// KVStore implements Store on a store.KV. Keys sort by occurrence time so a
// bucket scan yields chronological order.
type KVStore struct {
	kv store.KV
}

// NewKVStore creates a KVStore on kv.
func NewKVStore(kv store.KV) *KVStore {
	return &KVStore{kv: kv}
}

func entryKey(e Entry) string {
	return e.OccurredAt.UTC().Format("20060102T150405.000000000Z") + "_" + e.EventID
}

func (s *KVStore) WriteEntries(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding activity entry: %w", err)
		}
		if err := s.kv.Put(ctx, Bucket, entryKey(e), data); err != nil {
			return fmt.Errorf("writing activity entry %s: %w", e.EventID, err)
		}
	}
	return nil
}

func (s *KVStore) all(ctx context.Context) ([]Entry, error) {
	keys, err := s.kv.Keys(ctx, Bucket)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		data, err := s.kv.Get(ctx, Bucket, k)
		if err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decoding activity entry %s: %w", k, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *KVStore) QueryByModule(ctx context.Context, module string, opts QueryOptions) ([]Entry, string, int, error) {
	entries, err := s.all(ctx)
	if err != nil {
		return nil, "", 0, err
	}
	matched, cursor, total := queryEntries(entries, module, opts)
	return matched, cursor, total, nil
}

func (s *KVStore) Search(ctx context.Context, query string, opts SearchOptions) ([]Entry, int, error) {
	entries, err := s.all(ctx)
	if err != nil {
		return nil, 0, err
	}
	matched, total := searchEntries(entries, query, opts)
	return matched, total, nil
}

func queryEntries(entries []Entry, module string, opts QueryOptions) ([]Entry, string, int) {
	var cursorTime time.Time
	if opts.Cursor != "" {
		if t, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			cursorTime = t
		}
	}

	var matched []Entry
	for _, e := range entries {
		if e.Module != module {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if opts.Until != nil && e.OccurredAt.After(*opts.Until) {
			continue
		}
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, e.EventType) {
			continue
		}
		if !cursorTime.IsZero() && !e.OccurredAt.Before(cursorTime) {
			continue
		}
		matched = append(matched, e)
	}
	newestFirst(matched)

	totalCount := len(matched)
	limit := queryLimit(opts.Limit)
	var nextCursor string
	if len(matched) > limit {
		matched = matched[:limit]
		nextCursor = matched[len(matched)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return matched, nextCursor, totalCount
}

func searchEntries(entries []Entry, query string, opts SearchOptions) ([]Entry, int) {
	q := strings.ToLower(query)
	var matched []Entry
	for _, e := range entries {
		if !strings.Contains(strings.ToLower(e.Summary), q) {
			continue
		}
		if opts.Module != "" && e.Module != opts.Module {
			continue
		}
		if opts.Since != nil && e.OccurredAt.Before(*opts.Since) {
			continue
		}
		if len(opts.Types) > 0 && !slices.Contains(opts.Types, e.EventType) {
			continue
		}
		matched = append(matched, e)
	}
	newestFirst(matched)

	totalCount := len(matched)
	if limit := searchLimit(opts.Limit); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, totalCount
}

func newestFirst(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})
}
