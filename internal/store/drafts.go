package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/matthewbaird/formbuilder/internal/field"
)

// DraftBucket holds saved drafts keyed by id.
const DraftBucket = "drafts"

// Draft is a saved copy of a whole definition.
type Draft struct {
	ID        string           `json:"id"`
	Module    field.Definition `json:"moduleData"`
	Timestamp time.Time        `json:"timestamp"`
}

// Drafts stores builder drafts.
type Drafts struct {
	kv  KV
	now func() time.Time
}

// NewDrafts creates a Drafts repository on kv.
func NewDrafts(kv KV) *Drafts {
	return &Drafts{kv: kv, now: time.Now}
}

// Save upserts a draft of def keyed by def.ID. A definition without an id
// gets a new one, which is returned on the draft.
func (d *Drafts) Save(ctx context.Context, def field.Definition) (Draft, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	now := d.now().UTC()
	if def.CreatedAt.IsZero() {
		def.CreatedAt = now
	}
	def.UpdatedAt = now

	draft := Draft{ID: def.ID, Module: def, Timestamp: now}
	data, err := json.Marshal(draft)
	if err != nil {
		return Draft{}, fmt.Errorf("encoding draft: %w", err)
	}
	if err := d.kv.Put(ctx, DraftBucket, draft.ID, data); err != nil {
		return Draft{}, fmt.Errorf("saving draft %s: %w", draft.ID, err)
	}
	return draft, nil
}

// Get returns one draft.
func (d *Drafts) Get(ctx context.Context, id string) (Draft, error) {
	data, err := d.kv.Get(ctx, DraftBucket, id)
	if err != nil {
		return Draft{}, err
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return Draft{}, fmt.Errorf("decoding draft %s: %w", id, err)
	}
	return draft, nil
}

// List returns every draft, newest first.
func (d *Drafts) List(ctx context.Context) ([]Draft, error) {
	ids, err := d.kv.Keys(ctx, DraftBucket)
	if err != nil {
		return nil, err
	}
	drafts := make([]Draft, 0, len(ids))
	for _, id := range ids {
		draft, err := d.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	slices.SortStableFunc(drafts, func(a, b Draft) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return drafts, nil
}

// Delete removes a draft.
func (d *Drafts) Delete(ctx context.Context, id string) error {
	return d.kv.Delete(ctx, DraftBucket, id)
}
