package search

import (
	"context"
	"encoding/json"

	"github.com/jmhodges/clock"

	"github.com/sigstore/rekor-search-ui/entry"
	"github.com/sigstore/rekor-search-ui/entrydb"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/rekor"
)

// CachedClient reads entries through an entrydb.Accessor. Index searches
// always go to the log since new entries may match them; entries
// themselves never change once logged. Storage failures are logged and
// never fail a lookup.
type CachedClient struct {
	Client Client
	DB     entrydb.Accessor
	Clock  clock.Clock
}

var _ Client = (*CachedClient)(nil)

// NewCachedClient wraps c with a cache stored in db.
func NewCachedClient(c Client, db entrydb.Accessor) *CachedClient {
	return &CachedClient{Client: c, DB: db, Clock: clock.Default()}
}

// SearchIndex implements Client.
func (c *CachedClient) SearchIndex(ctx context.Context, q rekor.SearchIndex) ([]string, error) {
	return c.Client.SearchIndex(ctx, q)
}

// GetEntryByUUID implements Client.
func (c *CachedClient) GetEntryByUUID(ctx context.Context, uuid string) (entry.LogEntry, error) {
	records, err := c.DB.GetEntry(uuid)
	if le, ok := c.hit(records, err); ok {
		return le, nil
	}
	le, err := c.Client.GetEntryByUUID(ctx, uuid)
	if err != nil {
		return nil, err
	}
	c.store(le)
	return le, nil
}

// GetEntryByIndex implements Client.
func (c *CachedClient) GetEntryByIndex(ctx context.Context, logIndex int64) (entry.LogEntry, error) {
	records, err := c.DB.GetEntryByIndex(logIndex)
	if le, ok := c.hit(records, err); ok {
		return le, nil
	}
	le, err := c.Client.GetEntryByIndex(ctx, logIndex)
	if err != nil {
		return nil, err
	}
	c.store(le)
	return le, nil
}

// SearchLogQuery implements Client. Results are stored but the query is
// always sent to the log.
func (c *CachedClient) SearchLogQuery(ctx context.Context, q rekor.SearchLogQuery) ([]entry.LogEntry, error) {
	les, err := c.Client.SearchLogQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, le := range les {
		c.store(le)
	}
	return les, nil
}

func (c *CachedClient) hit(records []entrydb.EntryRecord, err error) (entry.LogEntry, bool) {
	if err != nil {
		log.Warningf("entry cache: lookup failed: %v", err)
		return nil, false
	}
	if len(records) == 0 {
		return nil, false
	}
	le := entry.LogEntry{}
	for _, rec := range records {
		var raw entry.RawLogEntry
		if err := json.Unmarshal([]byte(rec.Body), &raw); err != nil {
			log.Warningf("entry cache: discarding unreadable record %s: %v", rec.UUID, err)
			return nil, false
		}
		le[rec.UUID] = raw
	}
	return le, true
}

func (c *CachedClient) store(le entry.LogEntry) {
	clk := c.Clock
	if clk == nil {
		clk = clock.Default()
	}
	for uuid, raw := range le {
		body, err := json.Marshal(raw)
		if err != nil {
			log.Warningf("entry cache: encoding %s: %v", uuid, err)
			continue
		}
		err = c.DB.InsertEntry(entrydb.EntryRecord{
			UUID:           uuid,
			LogIndex:       raw.LogIndex,
			LogID:          raw.LogID,
			IntegratedTime: raw.IntegratedTime,
			Body:           string(body),
			FetchedAt:      clk.Now(),
		})
		if err == nil {
			continue
		}
		if rerr, ok := err.(*rserr.Error); ok && rerr.Reason() == rserr.DuplicateEntry {
			continue
		}
		log.Warningf("entry cache: storing %s: %v", uuid, err)
	}
}
