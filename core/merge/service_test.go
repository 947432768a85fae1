package merge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/storage/database/dummy"
)

func setup(t *testing.T) *merge.Service {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	return merge.NewService(dummydb.NewMergeRepository(db))
}

var (
	blue  = core.ClassKey{Year: 7, Class: "blue"}
	green = core.ClassKey{Year: 7, Class: "green"}
	red   = core.ClassKey{Year: 8, Class: "red"}
)

func TestService_Create(t *testing.T) {
	svc := setup(t)

	m, err := svc.Create(merge.NewMerge{Source: blue, Host: green})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, blue, m.Source)
	assert.Equal(t, green, m.Host)

	host, ok, err := svc.HostFor(blue)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, green, host)
}

func TestService_Create_selfMerge(t *testing.T) {
	svc := setup(t)

	// merging a class into itself is a conflict, same family as
	// ErrSourceMerged, and leaves no routing state behind
	_, err := svc.Create(merge.NewMerge{Source: blue, Host: blue})
	assert.Equal(t, merge.ErrSelfMerge, err)

	_, ok, err := svc.HostFor(blue)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Create_sourceAlreadyMerged(t *testing.T) {
	svc := setup(t)

	_, err := svc.Create(merge.NewMerge{Source: blue, Host: green})
	require.NoError(t, err)

	// conflicting merge is rejected even with a different host
	_, err = svc.Create(merge.NewMerge{Source: blue, Host: red})
	assert.Equal(t, merge.ErrSourceMerged, err)

	// the existing merge is untouched
	host, ok, err := svc.HostFor(blue)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, green, host)
}

func TestService_HostFor_unmerged(t *testing.T) {
	svc := setup(t)

	_, ok, err := svc.HostFor(red)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_Delete(t *testing.T) {
	svc := setup(t)

	m, err := svc.Create(merge.NewMerge{Source: blue, Host: green})
	require.NoError(t, err)

	deleted, err := svc.Delete(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)

	_, ok, err := svc.HostFor(blue)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Delete(m.ID)
	assert.Equal(t, merge.ErrNotFound, err)
}

func TestService_SourcesFor(t *testing.T) {
	svc := setup(t)

	m1, err := svc.Create(merge.NewMerge{Source: blue, Host: green})
	require.NoError(t, err)
	m2, err := svc.Create(merge.NewMerge{Source: red, Host: green})
	require.NoError(t, err)

	sources, err := svc.SourcesFor(green)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, m1.ID, sources[0].ID)
	assert.Equal(t, m2.ID, sources[1].ID)
}

func TestService_ClearAll(t *testing.T) {
	svc := setup(t)

	_, err := svc.Create(merge.NewMerge{Source: blue, Host: green})
	require.NoError(t, err)
	_, err = svc.Create(merge.NewMerge{Source: red, Host: green})
	require.NoError(t, err)

	removed, err := svc.ClearAll()
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	all, err := svc.All()
	require.NoError(t, err)
	assert.Empty(t, all)

	// clearing an empty set is a no-op
	removed, err = svc.ClearAll()
	require.NoError(t, err)
	assert.Empty(t, removed)
}
