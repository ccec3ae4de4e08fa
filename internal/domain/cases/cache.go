package cases

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ercase/ercase/internal/platform/kv"
	"github.com/ercase/ercase/internal/platform/metrics"
	"github.com/ercase/ercase/pkg/isotime"
)

// maxCachedCases bounds the per-device cache. Inserting beyond the bound
// evicts the entry with the oldest write timestamp.
const maxCachedCases = 50

const cacheKeyPrefix = "ercase:casecache:"

// CachedCase is one per-device cache entry. UpdatedAt is a fixed-width
// ISO-8601 string so entries order chronologically under plain string
// comparison.
type CachedCase struct {
	Treatment        Treatment        `json:"treatment"`
	Investigations   Investigations   `json:"investigations"`
	Procedures       Procedures       `json:"procedures"`
	AddendumNotes    []string         `json:"addendum_notes"`
	DischargeSummary DischargeSummary `json:"discharge_summary"`
	UpdatedAt        string           `json:"updated_at"`
}

// Cache holds recent clinical edits per device, keyed by case id. All
// entries for a device live under a single key-value blob; reads of a
// missing or corrupt blob start from empty, and write failures degrade
// silently so callers never fail a save because the cache is down.
type Cache struct {
	store   kv.Store
	metrics *metrics.Collector
	logger  zerolog.Logger
}

func NewCache(store kv.Store, collector *metrics.Collector, logger zerolog.Logger) *Cache {
	return &Cache{store: store, metrics: collector, logger: logger}
}

func cacheKey(deviceID string) string {
	return cacheKeyPrefix + deviceID
}

// CachePayload upserts the entry for caseID from the given snapshot.
// Fields absent from the snapshot keep their previously cached value, or
// start zero for a fresh entry.
func (c *Cache) CachePayload(ctx context.Context, deviceID, caseID string, snap CaseSnapshot) {
	entries := c.load(ctx, deviceID)
	entry := entries[caseID]
	if snap.Treatment != nil {
		entry.Treatment = *snap.Treatment
	}
	if snap.Investigations != nil {
		entry.Investigations = *snap.Investigations
	}
	if snap.Procedures != nil {
		entry.Procedures = *snap.Procedures
	}
	if snap.AddendumNotes != nil {
		entry.AddendumNotes = snap.AddendumNotes
	}
	if snap.DischargeSummary != nil {
		entry.DischargeSummary = *snap.DischargeSummary
	}
	c.put(ctx, deviceID, caseID, entries, entry)
}

// CacheAddendumNotes replaces the cached addendum list for caseID, in both
// the top-level list and the treatment sub-document.
func (c *Cache) CacheAddendumNotes(ctx context.Context, deviceID, caseID string, notes []string) {
	entries := c.load(ctx, deviceID)
	entry := entries[caseID]
	entry.AddendumNotes = notes
	entry.Treatment.AddendumNotes = notes
	c.put(ctx, deviceID, caseID, entries, entry)
}

// CacheDischargeSummary replaces the cached discharge summary for caseID.
func (c *Cache) CacheDischargeSummary(ctx context.Context, deviceID, caseID string, summary DischargeSummary) {
	entries := c.load(ctx, deviceID)
	entry := entries[caseID]
	entry.DischargeSummary = summary
	c.put(ctx, deviceID, caseID, entries, entry)
}

// CachedCase returns the cache entry for caseID, if one exists.
func (c *Cache) CachedCase(ctx context.Context, deviceID, caseID string) (CachedCase, bool) {
	entries := c.load(ctx, deviceID)
	entry, ok := entries[caseID]
	return entry, ok
}

// put stamps the entry, applies the size bound and writes the blob back.
func (c *Cache) put(ctx context.Context, deviceID, caseID string, entries map[string]CachedCase, entry CachedCase) {
	entry.UpdatedAt = isotime.Now()
	if _, exists := entries[caseID]; !exists && len(entries) >= maxCachedCases {
		c.evictOldest(entries)
	}
	entries[caseID] = entry
	c.save(ctx, deviceID, entries)
}

// evictOldest drops the entry with the smallest UpdatedAt. Ties fall to
// whichever entry is seen first.
func (c *Cache) evictOldest(entries map[string]CachedCase) {
	var oldestID, oldestAt string
	for id, e := range entries {
		if oldestID == "" || isotime.Before(e.UpdatedAt, oldestAt) {
			oldestID, oldestAt = id, e.UpdatedAt
		}
	}
	if oldestID == "" {
		return
	}
	delete(entries, oldestID)
	c.metrics.RecordCacheEviction()
}

func (c *Cache) load(ctx context.Context, deviceID string) map[string]CachedCase {
	raw, err := c.store.Get(ctx, cacheKey(deviceID))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			c.metrics.RecordStorageFault("case_cache")
			c.logger.Warn().Err(err).Str("device_id", deviceID).Msg("case cache read failed, starting empty")
		}
		return map[string]CachedCase{}
	}
	var entries map[string]CachedCase
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		c.logger.Warn().Err(err).Str("device_id", deviceID).Msg("case cache blob corrupt, starting empty")
		return map[string]CachedCase{}
	}
	if entries == nil {
		entries = map[string]CachedCase{}
	}
	return entries
}

func (c *Cache) save(ctx context.Context, deviceID string, entries map[string]CachedCase) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.logger.Error().Err(err).Str("device_id", deviceID).Msg("case cache marshal failed, write dropped")
		return
	}
	if err := c.store.Set(ctx, cacheKey(deviceID), string(raw)); err != nil {
		c.metrics.RecordStorageFault("case_cache")
		c.logger.Warn().Err(err).Str("device_id", deviceID).Msg("case cache write failed, edits not cached")
	}
}
