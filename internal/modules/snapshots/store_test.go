package snapshots

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/fabricpulse/rtms/internal/modules/normalize"
)

func setupTestStore(t *testing.T) *Store {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db, zerolog.Nop())
	require.NoError(t, store.Migrate())
	return store
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	fetchedAt := time.Now().Truncate(time.Second).UTC()

	snap := NewSnapshot([]normalize.RawRecord{
		{"EmpCode": "E1", "LineName": "D15-2", "ProdnPcs": int64(307)},
		{"EmpCode": "E2", "LineName": "D15-2", "ProdnPcs": int64(453)},
	}, fetchedAt)
	require.NoError(t, store.SaveLatest(snap))

	got, err := store.Latest()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, snap.ID, got.ID)
	assert.Equal(t, fetchedAt, got.FetchedAt)
	require.Len(t, got.Records, 2)
	assert.Equal(t, "E1", got.Records[0]["EmpCode"])
	assert.Equal(t, "D15-2", got.Records[0]["LineName"])
}

func TestStoreLatestEmpty(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Latest()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreKeepsOnlyLatest(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()

	first := NewSnapshot([]normalize.RawRecord{{"EmpCode": "E1"}}, now.Add(-time.Hour))
	second := NewSnapshot([]normalize.RawRecord{{"EmpCode": "E2"}}, now)

	require.NoError(t, store.SaveLatest(first))
	require.NoError(t, store.SaveLatest(second))

	got, err := store.Latest()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second.ID, got.ID)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "E2", got.Records[0]["EmpCode"])
}

func TestNewSnapshotAssignsIdentity(t *testing.T) {
	a := NewSnapshot(nil, time.Now())
	b := NewSnapshot(nil, time.Now())

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}
