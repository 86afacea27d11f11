// Package persona enforces the persona lifecycle rules on top of the
// storage collaborator: non-empty names and prompts, at least one persona
// at all times, and a deterministic active-id handoff on deletion.
package persona

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"replyassist/internal/storage"
	"replyassist/internal/types"
)

// Manager performs persona reads and mutations. It owns no state; every
// call round-trips through the store.
type Manager struct {
	store storage.Store
	now   func() time.Time
	newID func() string
}

// NewManager builds a Manager over the given store.
func NewManager(store storage.Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// WithClock overrides the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithIDGenerator overrides persona id generation, for tests.
func (m *Manager) WithIDGenerator(newID func() string) *Manager {
	m.newID = newID
	return m
}

// DeleteResult reports the outcome of a persona deletion.
type DeleteResult struct {
	DeletedName string `json:"deletedName"`
	NewActiveID string `json:"newActiveId"`
}

func (m *Manager) load(ctx context.Context) (types.PersonaCollection, string, error) {
	snapshot, err := m.store.Get(ctx, []string{types.KeyPersonas, types.KeyActivePersonaID})
	if err != nil {
		return nil, "", err
	}

	personas := types.PersonaCollection{}
	if raw, ok := snapshot[types.KeyPersonas]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &personas); err != nil {
			return nil, "", &types.StorageError{Op: "decode " + types.KeyPersonas, Err: err}
		}
	}
	var activeID string
	if raw, ok := snapshot[types.KeyActivePersonaID]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &activeID); err != nil {
			return nil, "", &types.StorageError{Op: "decode " + types.KeyActivePersonaID, Err: err}
		}
	}
	return personas, activeID, nil
}

// Save creates or updates a persona. Blank name or prompt (after
// trimming) is rejected before storage is touched. A new persona, or a
// save when nothing is active yet, becomes the active persona.
func (m *Manager) Save(ctx context.Context, id, name, promptText string) (types.Persona, error) {
	name = strings.TrimSpace(name)
	promptText = strings.TrimSpace(promptText)
	if name == "" {
		return types.Persona{}, types.Validationf("persona name must not be empty")
	}
	if promptText == "" {
		return types.Persona{}, types.Validationf("persona prompt must not be empty")
	}

	personas, activeID, err := m.load(ctx)
	if err != nil {
		return types.Persona{}, err
	}

	now := m.now()
	isNew := id == ""
	p := types.Persona{
		ID:         id,
		Name:       name,
		PromptText: promptText,
		CreatedAt:  now,
		LastUsed:   now,
	}
	if isNew {
		p.ID = m.newID()
	} else if existing, ok := personas[id]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	personas[p.ID] = p

	update := map[string]interface{}{types.KeyPersonas: personas}
	if isNew || activeID == "" {
		update[types.KeyActivePersonaID] = p.ID
	}
	if err := m.store.Set(ctx, update); err != nil {
		return types.Persona{}, err
	}
	return p, nil
}

// Delete removes a persona. Deleting the last remaining persona is
// rejected and the collection is left unchanged. When the active persona
// is deleted, the active id is reassigned to the first remaining persona
// in ascending id order.
func (m *Manager) Delete(ctx context.Context, id string) (DeleteResult, error) {
	personas, activeID, err := m.load(ctx)
	if err != nil {
		return DeleteResult{}, err
	}

	p, ok := personas[id]
	if !ok {
		return DeleteResult{}, types.Validationf("persona %q does not exist", id)
	}
	if len(personas) == 1 {
		return DeleteResult{}, types.Validationf("cannot delete the last remaining persona")
	}

	delete(personas, id)
	if activeID == id {
		remaining := make([]string, 0, len(personas))
		for pid := range personas {
			remaining = append(remaining, pid)
		}
		sort.Strings(remaining)
		activeID = remaining[0]
	}

	err = m.store.Set(ctx, map[string]interface{}{
		types.KeyPersonas:        personas,
		types.KeyActivePersonaID: activeID,
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{DeletedName: p.Name, NewActiveID: activeID}, nil
}

// SetActive marks the given persona as active and refreshes its LastUsed
// timestamp.
func (m *Manager) SetActive(ctx context.Context, id string) (types.Persona, error) {
	personas, _, err := m.load(ctx)
	if err != nil {
		return types.Persona{}, err
	}

	p, ok := personas[id]
	if !ok {
		return types.Persona{}, types.Validationf("persona %q does not exist", id)
	}
	p.LastUsed = m.now()
	personas[id] = p

	err = m.store.Set(ctx, map[string]interface{}{
		types.KeyPersonas:        personas,
		types.KeyActivePersonaID: id,
	})
	if err != nil {
		return types.Persona{}, err
	}
	return p, nil
}

// Active resolves the currently active persona. A missing collection or
// dangling active id is a configuration problem the user must fix.
func (m *Manager) Active(ctx context.Context) (types.Persona, error) {
	personas, activeID, err := m.load(ctx)
	if err != nil {
		return types.Persona{}, err
	}
	if len(personas) == 0 {
		return types.Persona{}, types.Validationf("no personas configured; create one in the extension options")
	}
	if activeID == "" {
		return types.Persona{}, types.Validationf("no active persona selected; choose one in the extension options")
	}
	p, ok := personas[activeID]
	if !ok {
		return types.Persona{}, types.Validationf("active persona %q does not exist; choose another", activeID)
	}
	return p, nil
}
