package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionSupersedes(t *testing.T) {
	c := newStubClient("a")
	started := make(chan struct{})
	c.block = map[string]chan struct{}{"slow": started}
	s := NewSession(NewRetriever(c))

	slowQ, _ := NewQuery(AttributeUUID, "slow")
	done := make(chan error, 1)
	go func() {
		_, err := s.Search(context.Background(), slowQ, 1)
		done <- err
	}()
	<-started

	fastQ, _ := NewQuery(AttributeUUID, "a")
	res, err := s.Search(context.Background(), fastQ, 1)
	require.NoError(t, err)
	require.Contains(t, res.Entries[0], "a")

	require.True(t, errors.Is(<-done, ErrSuperseded))

	cur, err := s.Current()
	require.NoError(t, err)
	require.Same(t, res, cur)
	require.Equal(t, uint64(2), s.Generation())
}

func TestSessionCurrentError(t *testing.T) {
	s := NewSession(NewRetriever(newStubClient("a")))

	q, _ := NewQuery(AttributeUUID, "a")
	_, err := s.Search(context.Background(), q, 1)
	require.NoError(t, err)

	q, _ = NewQuery(AttributeUUID, "missing")
	_, err = s.Search(context.Background(), q, 1)
	require.Error(t, err)

	cur, curErr := s.Current()
	require.Nil(t, cur)
	require.Equal(t, err, curErr)
}

func TestSessionsPerKey(t *testing.T) {
	ss := NewSessions(NewRetriever(newStubClient("a")), 0)
	a := ss.Get("alice")
	require.Same(t, a, ss.Get("alice"))
	require.NotSame(t, a, ss.Get("bob"))
	require.Equal(t, 2, ss.Len())
}

func TestSessionsEvictIdle(t *testing.T) {
	c := newStubClient("a")
	started := make(chan struct{})
	c.block = map[string]chan struct{}{"slow": started}
	ss := NewSessions(NewRetriever(c), 1)

	busy := ss.Get("busy")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		q, _ := NewQuery(AttributeUUID, "slow")
		_, err := busy.Search(ctx, q, 1)
		done <- err
	}()
	<-started

	// The only tracked session is busy, so the new one is not kept.
	extra := ss.Get("extra")
	require.NotSame(t, extra, ss.Get("extra"))
	require.Equal(t, 1, ss.Len())

	cancel()
	require.Error(t, <-done)

	idle := ss.Get("idle")
	require.Same(t, idle, ss.Get("idle"))
	require.Equal(t, 1, ss.Len())
	require.NotSame(t, busy, ss.Get("busy"))
}
