package rekor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://rekor.example.test"

const entryJSON = `{"24296fb24b8ad77a":{"body":"e30=","integratedTime":1700000000,"logID":"c0d23d6a","logIndex":7}}`

func setupClient(t *testing.T) *Client {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)

	c := NewClient(testBaseURL)
	c.RetryInterval = time.Millisecond
	c.MaxRetryWait = 5 * time.Millisecond
	return c
}

func TestSearchIndex(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("POST", testBaseURL+"/api/v1/index/retrieve",
		func(req *http.Request) (*http.Response, error) {
			var q SearchIndex
			if err := json.NewDecoder(req.Body).Decode(&q); err != nil {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"code":400,"message":"bad body"}`), nil
			}
			if q.Email != "jdoe@example.com" || q.Hash != "" {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"code":400,"message":"unexpected query"}`), nil
			}
			if req.Header.Get("User-Agent") != DefaultUserAgent {
				return httpmock.NewStringResponse(http.StatusBadRequest, `{"message":"missing user agent"}`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `["b","a"]`), nil
		})

	uuids, err := c.SearchIndex(context.Background(), SearchIndex{Email: "jdoe@example.com"})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, uuids)
}

func TestGetEntryByIndex(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponderWithQuery("GET", testBaseURL+"/api/v1/log/entries", "logIndex=7",
		httpmock.NewStringResponder(http.StatusOK, entryJSON))

	le, err := c.GetEntryByIndex(context.Background(), 7)
	require.NoError(t, err)
	require.Contains(t, le, "24296fb24b8ad77a")
	require.Equal(t, int64(7), le["24296fb24b8ad77a"].LogIndex)
}

func TestGetEntryByUUID(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/v1/log/entries/24296fb24b8ad77a",
		httpmock.NewStringResponder(http.StatusOK, entryJSON))

	le, err := c.GetEntryByUUID(context.Background(), "24296fb24b8ad77a")
	require.NoError(t, err)
	require.Equal(t, "e30=", le["24296fb24b8ad77a"].Body)
}

func TestSearchLogQuery(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("POST", testBaseURL+"/api/v1/log/entries/retrieve",
		httpmock.NewStringResponder(http.StatusOK, "["+entryJSON+"]"))

	les, err := c.SearchLogQuery(context.Background(), SearchLogQuery{LogIndexes: []int64{7}})
	require.NoError(t, err)
	require.Len(t, les, 1)
}

func TestNotFoundIsNotRetried(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/v1/log/entries/missing",
		httpmock.NewStringResponder(http.StatusNotFound, `{"code":404,"message":"entry not found"}`))

	_, err := c.GetEntryByUUID(context.Background(), "missing")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, http.StatusNotFound, rerr.StatusCode)
	require.Equal(t, "404", rerr.Code)
	require.Equal(t, "entry not found", rerr.Message)
	require.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestServerErrorIsRetried(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/v1/log/entries/flaky",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"code":"unavailable","message":"try later"}`))

	_, err := c.GetEntryByUUID(context.Background(), "flaky")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, "unavailable", rerr.Code)
	require.Equal(t, DefaultMaxRetries+1, httpmock.GetTotalCallCount())
}

func TestRetryRecovers(t *testing.T) {
	c := setupClient(t)
	calls := 0
	httpmock.RegisterResponder("POST", testBaseURL+"/api/v1/index/retrieve",
		func(req *http.Request) (*http.Response, error) {
			calls++
			if calls == 1 {
				return httpmock.NewStringResponse(http.StatusTooManyRequests, ""), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `["a"]`), nil
		})

	uuids, err := c.SearchIndex(context.Background(), SearchIndex{Hash: "sha256:ff"})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, uuids)
	require.Equal(t, 2, calls)
}

func TestNoRetriesWhenDisabled(t *testing.T) {
	c := setupClient(t)
	c.MaxRetries = 0
	httpmock.RegisterResponder("GET", testBaseURL+"/api/v1/log/entries/flaky",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := c.GetEntryByUUID(context.Background(), "flaky")
	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, "boom", rerr.Message)
	require.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestTransportError(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/v1/log/entries/down",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.GetEntryByUUID(context.Background(), "down")
	require.Error(t, err)
	var rerr *Error
	require.False(t, errors.As(err, &rerr))
	require.Equal(t, DefaultMaxRetries+1, httpmock.GetTotalCallCount())
}

func TestCanceledContext(t *testing.T) {
	c := setupClient(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/v1/log/entries/x",
		httpmock.NewStringResponder(http.StatusOK, entryJSON))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetEntryByUUID(ctx, "x")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestErrorUnmarshal(t *testing.T) {
	cases := map[string]string{
		`{"code":400,"message":"m"}`:     "400",
		`{"code":"bad","message":"m"}`:   "bad",
		`{"message":"m"}`:                "",
		`{"code":null,"message":"m"}`:    "",
	}
	for in, want := range cases {
		var e Error
		require.NoError(t, json.Unmarshal([]byte(in), &e), in)
		require.Equal(t, want, e.Code, in)
		require.Equal(t, "m", e.Message, in)
	}
}
