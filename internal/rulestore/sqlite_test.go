package rulestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perimetra/fwapi/internal/rules"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r := &rules.Rule{
		OwnerUUID: ownerA,
		Enabled:   true,
		From:      rules.Side{VMs: []string{vmA}},
		To:        rules.Side{Subnets: []string{"10.0.0.0/24"}},
		Text:      "FROM vm " + vmA + " TO subnet 10.0.0.0/24 ALLOW tcp PORT 22",
	}
	require.NoError(t, s.Add(ctx, r))
	require.NotEmpty(t, r.UUID)

	got, err := s.Get(ctx, r.UUID)
	require.NoError(t, err)
	assert.Equal(t, r.OwnerUUID, got.OwnerUUID)
	assert.Equal(t, r.From.VMs, got.From.VMs)
	assert.Equal(t, r.Text, got.Text)

	_, err = s.Get(ctx, "missing-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreQuery(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	mine := &rules.Rule{OwnerUUID: ownerA, From: rules.Side{VMs: []string{vmA}}, To: rules.Side{Wildcards: []string{"any"}}}
	theirs := &rules.Rule{OwnerUUID: ownerB, From: rules.Side{VMs: []string{vmB}}, To: rules.Side{Wildcards: []string{"any"}}}
	global := &rules.Rule{Global: true, From: rules.Side{Wildcards: []string{"any"}}, To: rules.Side{Wildcards: []string{"any"}}}
	tagged := &rules.Rule{OwnerUUID: ownerB, Tags: []string{"role=db"}, From: rules.Side{Tags: []string{"role=db"}}, To: rules.Side{IPs: []string{"10.1.2.3"}}}
	for _, r := range []*rules.Rule{mine, theirs, global, tagged} {
		require.NoError(t, s.Add(ctx, r))
	}

	byOwner, err := s.Query(ctx, Filter{OwnerUUID: ownerA})
	require.NoError(t, err)
	require.Len(t, byOwner, 2)
	assert.Equal(t, mine.UUID, byOwner[0].UUID)
	assert.Equal(t, global.UUID, byOwner[1].UUID)

	// tag criteria cross owner boundaries
	byTag, err := s.Query(ctx, Filter{Tags: []string{"role=db"}})
	require.NoError(t, err)
	require.Len(t, byTag, 2) // tagged rule + global
	assert.Equal(t, global.UUID, byTag[0].UUID)
	assert.Equal(t, tagged.UUID, byTag[1].UUID)

	byVM, err := s.Query(ctx, Filter{VMs: []string{vmA}})
	require.NoError(t, err)
	require.Len(t, byVM, 2) // vm rule + global

	all, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSQLiteStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	r := &rules.Rule{OwnerUUID: ownerA, From: rules.Side{VMs: []string{vmA}}, To: rules.Side{Wildcards: []string{"any"}}}
	require.NoError(t, s.Add(ctx, r))

	require.NoError(t, s.Delete(ctx, r.UUID))
	require.NoError(t, s.Delete(ctx, r.UUID), "double delete must succeed")

	_, err := s.Get(ctx, r.UUID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreUpdateKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := &rules.Rule{OwnerUUID: ownerA, From: rules.Side{VMs: []string{vmA}}, To: rules.Side{Wildcards: []string{"any"}}}
	second := &rules.Rule{OwnerUUID: ownerA, From: rules.Side{VMs: []string{vmB}}, To: rules.Side{Wildcards: []string{"any"}}}
	require.NoError(t, s.Add(ctx, first))
	require.NoError(t, s.Add(ctx, second))

	// re-adding the first rule updates in place, not reorders
	first.Enabled = true
	require.NoError(t, s.Add(ctx, first))

	all, err := s.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.UUID, all[0].UUID)
	assert.True(t, all[0].Enabled)
}
