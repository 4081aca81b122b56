package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sigstore/rekor-search-ui/entry"
	rserr "github.com/sigstore/rekor-search-ui/errors"
	"github.com/sigstore/rekor-search-ui/rekor"
)

// stubClient serves entries from memory and records the calls made.
type stubClient struct {
	mu      sync.Mutex
	ids     []string
	entries map[string]entry.RawLogEntry
	indexQ  []rekor.SearchIndex
	fetched []string
	err     error
	block   map[string]chan struct{}
}

func newStubClient(ids ...string) *stubClient {
	c := &stubClient{ids: ids, entries: map[string]entry.RawLogEntry{}}
	for i, id := range ids {
		c.entries[id] = entry.RawLogEntry{Body: "e30=", LogIndex: int64(i)}
	}
	return c
}

func (c *stubClient) SearchIndex(ctx context.Context, q rekor.SearchIndex) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexQ = append(c.indexQ, q)
	if c.err != nil {
		return nil, c.err
	}
	return append([]string(nil), c.ids...), nil
}

func (c *stubClient) GetEntryByIndex(ctx context.Context, logIndex int64) (entry.LogEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	for id, raw := range c.entries {
		if raw.LogIndex == logIndex {
			return entry.LogEntry{id: raw}, nil
		}
	}
	return nil, &rekor.Error{StatusCode: http.StatusNotFound, Code: "404", Message: "not found"}
}

func (c *stubClient) GetEntryByUUID(ctx context.Context, uuid string) (entry.LogEntry, error) {
	if ch, ok := c.block[uuid]; ok {
		close(ch)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	c.mu.Lock()
	c.fetched = append(c.fetched, uuid)
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	raw, ok := c.entries[uuid]
	if !ok {
		return nil, &rekor.Error{StatusCode: http.StatusNotFound, Code: "404", Message: "not found"}
	}
	return entry.LogEntry{uuid: raw}, nil
}

func (c *stubClient) SearchLogQuery(ctx context.Context, q rekor.SearchLogQuery) ([]entry.LogEntry, error) {
	if c.err != nil {
		return nil, c.err
	}
	var les []entry.LogEntry
	for _, id := range q.EntryUUIDs {
		if raw, ok := c.entries[id]; ok {
			les = append(les, entry.LogEntry{id: raw})
		}
	}
	return les, nil
}

func TestParseAttribute(t *testing.T) {
	for _, a := range Attributes {
		got, err := ParseAttribute(string(a))
		require.NoError(t, err)
		require.Equal(t, a, got)
	}

	_, err := ParseAttribute("fingerprint")
	require.Error(t, err)
	require.True(t, errors.Is(err, rserr.New(rserr.QueryError, rserr.InvalidAttribute)))
}

func TestNewQuery(t *testing.T) {
	q, err := NewQuery(AttributeLogIndex, " 42 ")
	require.NoError(t, err)
	require.Equal(t, int64(42), q.LogIndex)

	for _, bad := range []string{"-1", "x", "1.5", ""} {
		_, err := NewQuery(AttributeLogIndex, bad)
		require.Error(t, err, bad)
		require.True(t, rserr.InCategory(err, rserr.QueryError), bad)
	}

	_, err = NewQuery(AttributeEmail, "   ")
	require.Error(t, err)

	_, err = ParseQuery("email", "jdoe@example.com")
	require.NoError(t, err)
}

func TestBuildCommitSha(t *testing.T) {
	sha := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	sum := sha256.Sum256([]byte(sha))
	want := "sha256:" + hex.EncodeToString(sum[:])

	q, err := NewQuery(AttributeCommitSha, sha)
	require.NoError(t, err)
	lookup, err := NewBuilder(nil).Build(q)
	require.NoError(t, err)
	require.Equal(t, LookupIndex, lookup.Kind)
	require.Equal(t, want, lookup.Index.Hash)
	require.Empty(t, lookup.Index.Email)
}

type fixedHasher string

func (h fixedHasher) Digest(string) string { return string(h) }

func TestBuildInjectedHasher(t *testing.T) {
	q, _ := NewQuery(AttributeCommitSha, "abc")
	lookup, err := NewBuilder(fixedHasher("sha256:fixed")).Build(q)
	require.NoError(t, err)
	require.Equal(t, "sha256:fixed", lookup.Index.Hash)
}

func TestBuildHash(t *testing.T) {
	digest := "0d6c5e0d0c3f6d5e2b8a1f4a1c6b0e9e7f3b2a1d0c9e8f7a6b5c4d3e2f1a0b9c"
	cases := map[string]string{
		digest:             "sha256:" + digest,
		"sha256:" + digest: "sha256:" + digest,
	}
	b := NewBuilder(nil)
	for in, want := range cases {
		q, err := NewQuery(AttributeHash, in)
		require.NoError(t, err)
		lookup, err := b.Build(q)
		require.NoError(t, err)
		require.Equal(t, want, lookup.Index.Hash, in)
	}
}

func TestBuildDirect(t *testing.T) {
	b := NewBuilder(nil)

	q, _ := NewQuery(AttributeUUID, "24296fb24b8ad77a")
	lookup, err := b.Build(q)
	require.NoError(t, err)
	require.True(t, lookup.Direct())
	require.Equal(t, "24296fb24b8ad77a", lookup.UUID)

	q, _ = NewQuery(AttributeLogIndex, "7")
	lookup, err = b.Build(q)
	require.NoError(t, err)
	require.Equal(t, LookupLogIndex, lookup.Kind)
	require.Equal(t, int64(7), lookup.LogIndex)

	q, _ = NewQuery(AttributeEmail, "jdoe@example.com")
	lookup, err = b.Build(q)
	require.NoError(t, err)
	require.False(t, lookup.Direct())
	require.Equal(t, "jdoe@example.com", lookup.Index.Email)
}

func testIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("uuid-%02d", i)
	}
	// Reverse so the result order shows the sort.
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids
}

func TestPageOf(t *testing.T) {
	ids := testIDs(45)
	page := PageOf(ids, 2)
	require.Len(t, page, PageSize)
	require.Equal(t, "uuid-20", page[0])
	require.Equal(t, "uuid-39", page[len(page)-1])

	require.Len(t, PageOf(ids, 3), 5)
	require.Empty(t, PageOf(ids, 4))
	require.Equal(t, PageOf(ids, 1), PageOf(ids, 0))
	// The input is not reordered.
	require.Equal(t, "uuid-44", ids[0])
}

func TestRetrievePage(t *testing.T) {
	c := newStubClient(testIDs(45)...)
	q, _ := NewQuery(AttributeEmail, "jdoe@example.com")

	res, err := NewRetriever(c).Retrieve(context.Background(), q, 2)
	require.NoError(t, err)
	require.Equal(t, 45, res.TotalCount)
	require.Equal(t, 2, res.Page)
	require.Len(t, res.Entries, PageSize)
	for i, le := range res.Entries {
		want := fmt.Sprintf("uuid-%02d", 20+i)
		require.Contains(t, le, want)
	}
	require.Len(t, c.fetched, PageSize)
	require.Equal(t, "jdoe@example.com", c.indexQ[0].Email)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	c := newStubClient()
	q, _ := NewQuery(AttributeHash, "abc")
	res, err := NewRetriever(c).Retrieve(context.Background(), q, 1)
	require.NoError(t, err)
	require.Equal(t, 0, res.TotalCount)
	require.Empty(t, res.Entries)
	require.Equal(t, "sha256:abc", c.indexQ[0].Hash)
}

func TestRetrieveDirect(t *testing.T) {
	c := newStubClient("a", "b")
	r := NewRetriever(c)

	q, _ := NewQuery(AttributeUUID, "b")
	res, err := r.Retrieve(context.Background(), q, 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	require.Contains(t, res.Entries[0], "b")

	q, _ = NewQuery(AttributeLogIndex, "0")
	res, err = r.Retrieve(context.Background(), q, 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	require.Contains(t, res.Entries[0], "a")
}

func TestRetrieveErrors(t *testing.T) {
	r := NewRetriever(newStubClient("a"))

	q, _ := NewQuery(AttributeUUID, "missing")
	_, err := r.Retrieve(context.Background(), q, 1)
	require.True(t, errors.Is(err, rserr.New(rserr.QueryError, rserr.NotFound)))
	var rerr *rekor.Error
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, "404", rerr.Code)

	cases := []struct {
		err    error
		reason rserr.Reason
	}{
		{&rekor.Error{StatusCode: http.StatusBadRequest, Code: "400"}, rserr.BadRequest},
		{&rekor.Error{StatusCode: http.StatusBadGateway}, rserr.ServerError},
		{errors.New("connection refused"), rserr.TransportFailed},
	}
	for _, tc := range cases {
		c := newStubClient("a")
		c.err = tc.err
		q, _ := NewQuery(AttributeEmail, "jdoe@example.com")
		_, err := NewRetriever(c).Retrieve(context.Background(), q, 1)
		require.True(t, errors.Is(err, rserr.New(rserr.QueryError, tc.reason)), "%v", err)
		require.True(t, errors.Is(err, tc.err))
	}
}

func TestRetrieveFetchFailure(t *testing.T) {
	c := newStubClient("a", "b")
	delete(c.entries, "b")
	q, _ := NewQuery(AttributeEmail, "jdoe@example.com")
	_, err := NewRetriever(c).Retrieve(context.Background(), q, 1)
	require.True(t, rserr.InCategory(err, rserr.QueryError))
}

func TestRetrieveLogQuery(t *testing.T) {
	r := NewRetriever(newStubClient("a", "b"))
	les, err := r.RetrieveLogQuery(context.Background(), rekor.SearchLogQuery{EntryUUIDs: []string{"a", "b"}})
	require.NoError(t, err)
	require.Len(t, les, 2)

	_, err = r.RetrieveLogQuery(context.Background(), rekor.SearchLogQuery{})
	require.True(t, errors.Is(err, rserr.New(rserr.QueryError, rserr.BadRequest)))
}

func TestNormalizeView(t *testing.T) {
	c := newStubClient("a", "b")
	// "e30=" is "{}", which has no kind.
	c.entries["b"] = entry.RawLogEntry{
		Body:     "eyJraW5kIjoiYWxwaW5lIiwiYXBpVmVyc2lvbiI6IjAuMC4xIiwic3BlYyI6e319",
		LogIndex: 1,
	}
	q, _ := NewQuery(AttributeEmail, "jdoe@example.com")
	res, err := NewRetriever(c).Retrieve(context.Background(), q, 1)
	require.NoError(t, err)

	v := Normalize(entry.NewNormalizer(nil, nil), res)
	require.Equal(t, 2, v.TotalCount)
	require.Len(t, v.Entries, 1)
	require.Equal(t, "b", v.Entries[0].UUID)
	require.Equal(t, "alpine", v.Entries[0].Body.Kind)
	require.Nil(t, v.Entries[0].Viewer)
	require.Len(t, v.Errors, 1)
	require.Equal(t, "a", v.Errors[0].UUID)
}
