// Package insights memoizes generated summaries of check-in sets.
package insights

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/julianstephens/moodlit/internal/models"
)

// ErrEmptyKey is returned when an insight is requested for no check-ins.
var ErrEmptyKey = errors.New("insight needs at least one check-in")

// Key identifies the insight for a set of check-in ids: the SHA-256 of the
// ids in ascending order, comma-joined. Order of ids does not matter.
func Key(ids []int64) string {
	return ScopedKey("", ids)
}

// ScopedKey is Key namespaced by scope. The company service scopes keys by
// company so two tenants never share an entry.
func ScopedKey(scope string, ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	data := models.JoinIDs(sorted)
	if scope != "" {
		data = scope + ":" + data
	}
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// CategoryKey is ScopedKey for a summary focused on category. Category 0 is
// the unfocused summary and keeps the plain scoped key.
func CategoryKey(scope string, category int, ids []int64) string {
	if category == 0 {
		return ScopedKey(scope, ids)
	}
	cat := fmt.Sprintf("cat:%d", category)
	if scope != "" {
		cat = scope + ":" + cat
	}
	return ScopedKey(cat, ids)
}

// Cache stores insights by key. Get returns an error wrapping
// apperrors.ErrNotFound when the key is absent.
type Cache interface {
	Get(ctx context.Context, key string) (models.Insight, error)
	Put(ctx context.Context, insight models.Insight) error
	Invalidate(ctx context.Context, key string) error
	// InvalidateCheckIn drops every entry built from the check-in and reports
	// how many were dropped.
	InvalidateCheckIn(ctx context.Context, id int64) (int, error)
}

// InsightStore is the part of storage.Provider StoreCache needs.
type InsightStore interface {
	GetInsight(ctx context.Context, key string) (models.Insight, error)
	SaveInsight(ctx context.Context, insight models.Insight) error
	DeleteInsight(ctx context.Context, key string) error
	DeleteInsightsForCheckIn(ctx context.Context, id int64) (int, error)
}

// StoreCache keeps insights in the local store's insights table.
type StoreCache struct {
	store InsightStore
}

func NewStoreCache(store InsightStore) *StoreCache {
	return &StoreCache{store: store}
}

func (c *StoreCache) Get(ctx context.Context, key string) (models.Insight, error) {
	if key == "" {
		return models.Insight{}, ErrEmptyKey
	}
	return c.store.GetInsight(ctx, key)
}

func (c *StoreCache) Put(ctx context.Context, insight models.Insight) error {
	if insight.Key == "" {
		return ErrEmptyKey
	}
	return c.store.SaveInsight(ctx, insight)
}

func (c *StoreCache) Invalidate(ctx context.Context, key string) error {
	return c.store.DeleteInsight(ctx, key)
}

func (c *StoreCache) InvalidateCheckIn(ctx context.Context, id int64) (int, error) {
	return c.store.DeleteInsightsForCheckIn(ctx, id)
}
