package search

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/sigstore/rekor-search-ui/entry"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/log"
	"github.com/sigstore/rekor-search-ui/rekor"
)

// PageSize is the number of entries in one page of index results.
const PageSize = 20

// DefaultConcurrency bounds the parallel entry fetches of one page.
const DefaultConcurrency = 8

// Client is the transparency log. *rekor.Client implements it.
type Client interface {
	SearchIndex(ctx context.Context, q rekor.SearchIndex) ([]string, error)
	GetEntryByIndex(ctx context.Context, logIndex int64) (entry.LogEntry, error)
	GetEntryByUUID(ctx context.Context, uuid string) (entry.LogEntry, error)
	SearchLogQuery(ctx context.Context, q rekor.SearchLogQuery) ([]entry.LogEntry, error)
}

var _ Client = (*rekor.Client)(nil)

// Result is one page of a search.
type Result struct {
	Query      Query            `json:"query"`
	Page       int              `json:"page"`
	TotalCount int              `json:"total_count"`
	Entries    []entry.LogEntry `json:"entries"`
}

// Retriever runs queries against a Client.
type Retriever struct {
	Client      Client
	Builder     *Builder
	Concurrency int
}

// NewRetriever returns a Retriever over c with a default Builder.
func NewRetriever(c Client) *Retriever {
	return &Retriever{
		Client:      c,
		Builder:     NewBuilder(nil),
		Concurrency: DefaultConcurrency,
	}
}

// Retrieve returns page of the results of q; pages start at 1 and
// anything lower is page 1. A direct lookup yields one entry. An index
// lookup sorts the matching identifiers, then fetches the page's slice of
// them; TotalCount is the number of identifiers matched. Log failures are
// returned as QueryError.
func (r *Retriever) Retrieve(ctx context.Context, q Query, page int) (*Result, error) {
	if page < 1 {
		page = 1
	}
	b := r.Builder
	if b == nil {
		b = NewBuilder(nil)
	}
	lookup, err := b.Build(q)
	if err != nil {
		return nil, err
	}

	res := &Result{Query: q, Page: page}
	switch lookup.Kind {
	case LookupUUID:
		le, err := r.Client.GetEntryByUUID(ctx, lookup.UUID)
		if err != nil {
			return nil, wrapClientError(err)
		}
		res.TotalCount, res.Entries = 1, []entry.LogEntry{le}
		return res, nil
	case LookupLogIndex:
		le, err := r.Client.GetEntryByIndex(ctx, lookup.LogIndex)
		if err != nil {
			return nil, wrapClientError(err)
		}
		res.TotalCount, res.Entries = 1, []entry.LogEntry{le}
		return res, nil
	}

	ids, err := r.Client.SearchIndex(ctx, lookup.Index)
	if err != nil {
		return nil, wrapClientError(err)
	}
	res.TotalCount = len(ids)
	pageIDs := PageOf(ids, page)
	log.Debugf("search: %s matched %d entries, fetching %d for page %d", q.Attribute, len(ids), len(pageIDs), page)

	res.Entries, err = r.fetch(ctx, pageIDs)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Retriever) fetch(ctx context.Context, ids []string) ([]entry.LogEntry, error) {
	entries := make([]entry.LogEntry, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			le, err := r.Client.GetEntryByUUID(gctx, id)
			if err != nil {
				return wrapClientError(err)
			}
			entries[i] = le
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// RetrieveLogQuery fetches every entry named by q in one call.
func (r *Retriever) RetrieveLogQuery(ctx context.Context, q rekor.SearchLogQuery) ([]entry.LogEntry, error) {
	if len(q.EntryUUIDs) == 0 && len(q.LogIndexes) == 0 {
		return nil, rserr.Wrap(rserr.QueryError, rserr.BadRequest, errors.New("empty log query"))
	}
	les, err := r.Client.SearchLogQuery(ctx, q)
	if err != nil {
		return nil, wrapClientError(err)
	}
	return les, nil
}

// PageOf sorts a copy of ids and returns the identifiers of page, which
// starts at 1.
func PageOf(ids []string, page int) []string {
	if page < 1 {
		page = 1
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	start := (page - 1) * PageSize
	if start >= len(sorted) {
		return []string{}
	}
	end := start + PageSize
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[start:end]
}

// wrapClientError files a log failure under QueryError. The log's own code
// and message stay in the cause.
func wrapClientError(err error) error {
	var coded *rserr.Error
	if errors.As(err, &coded) && coded.Category() == rserr.QueryError {
		return err
	}

	reason := rserr.TransportFailed
	var rerr *rekor.Error
	if errors.As(err, &rerr) {
		switch {
		case rerr.StatusCode == http.StatusNotFound:
			reason = rserr.NotFound
		case rerr.StatusCode >= 500:
			reason = rserr.ServerError
		case rerr.StatusCode >= 400:
			reason = rserr.BadRequest
		default:
			reason = rserr.Unknown
		}
	}
	return rserr.Wrap(rserr.QueryError, reason, err)
}
