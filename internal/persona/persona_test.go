package persona

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"replyassist/internal/storage"
	"replyassist/internal/types"
)

func newTestManager(t *testing.T) (*Manager, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	var seq int
	mgr := NewManager(store).
		WithClock(func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }).
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("p%d", seq)
		})
	return mgr, store
}

func TestSave_NewPersonaBecomesActive(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	p, err := mgr.Save(ctx, "", "Casual", "Reply like a laid-back friend.")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Casual", p.Name)

	active, err := mgr.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p1", active.ID)
}

func TestSave_BlankFieldsRejectedWithoutMutation(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	cases := []struct {
		name       string
		personaName, prompt string
	}{
		{"blank name", "   ", "prompt text"},
		{"blank prompt", "Name", "  \t "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mgr.Save(ctx, "", tc.personaName, tc.prompt)
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)

			snapshot, err := store.Get(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, snapshot, "storage must stay untouched on rejected save")
		})
	}
}

func TestSave_UpdatePreservesCreatedAt(t *testing.T) {
	store := storage.NewMemStore()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := created
	mgr := NewManager(store).WithClock(func() time.Time { return now })

	p, err := mgr.Save(context.Background(), "", "Formal", "Reply formally.")
	require.NoError(t, err)

	now = later
	updated, err := mgr.Save(context.Background(), p.ID, "Very Formal", "Reply very formally.")
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.Equal(t, created, updated.CreatedAt)
	assert.Equal(t, later, updated.LastUsed)
}

func TestDelete_LastPersonaRejected(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	p, err := mgr.Save(ctx, "", "Only", "The only persona.")
	require.NoError(t, err)

	_, err = mgr.Delete(ctx, p.ID)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)

	// Collection unchanged.
	var personas types.PersonaCollection
	ok, err := storage.GetInto(ctx, store, types.KeyPersonas, &personas)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, personas, 1)
}

func TestDelete_ActiveReassignsToFirstRemainingByID(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Save(ctx, "", "First", "one")
	require.NoError(t, err)
	second, err := mgr.Save(ctx, "", "Second", "two")
	require.NoError(t, err)
	third, err := mgr.Save(ctx, "", "Third", "three")
	require.NoError(t, err)

	// Last save activated p3.
	active, err := mgr.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, third.ID, active.ID)

	res, err := mgr.Delete(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, "Third", res.DeletedName)
	assert.Equal(t, "p1", res.NewActiveID, "reassignment picks ascending id order")
	assert.NotEqual(t, third.ID, res.NewActiveID)

	// Deleting a non-active persona leaves the active pointer alone.
	res, err = mgr.Delete(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "p1", res.NewActiveID)
}

func TestSetActive(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	a, err := mgr.Save(ctx, "", "A", "aaa")
	require.NoError(t, err)
	_, err = mgr.Save(ctx, "", "B", "bbb")
	require.NoError(t, err)

	p, err := mgr.SetActive(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, p.ID)

	active, err := mgr.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active.ID)

	_, err = mgr.SetActive(ctx, "ghost")
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestActive_MissingConfigurations(t *testing.T) {
	mgr, store := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.Active(ctx)
	var verr *types.ValidationError
	require.ErrorAs(t, err, &verr, "empty collection")

	_, err = mgr.Save(ctx, "", "A", "aaa")
	require.NoError(t, err)

	// Dangling active pointer.
	require.NoError(t, store.Set(ctx, map[string]interface{}{types.KeyActivePersonaID: "ghost"}))
	_, err = mgr.Active(ctx)
	require.ErrorAs(t, err, &verr)
}
