package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"replyassist/internal/types"
)

// Action identifies one operation of the caller-facing API. The set is
// closed: Dispatch matches exhaustively and anything else is an
// UnknownActionError.
type Action string

const (
	ActionGenerate         Action = "generateResponse"
	ActionSavePersona      Action = "savePersona"
	ActionDeletePersona    Action = "deletePersona"
	ActionSetActivePersona Action = "setActivePersona"
	ActionGetSettings      Action = "getSettings"
	ActionSaveSettings     Action = "saveSettings"
)

// Command is one request from the extension: an action tag plus its
// action-specific payload.
type Command struct {
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type generatePayload struct {
	Messages []types.Message `json:"messages"`
}

type savePersonaPayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

type personaIDPayload struct {
	PersonaID string `json:"personaId"`
}

type getSettingsPayload struct {
	Keys []string `json:"keys"`
}

// Dispatch routes a command to the matching orchestrator operation and
// returns its result value.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd Command) (interface{}, error) {
	switch cmd.Action {
	case ActionGenerate:
		var p generatePayload
		if err := decode(cmd, &p); err != nil {
			return nil, err
		}
		return o.Generate(ctx, p.Messages)

	case ActionSavePersona:
		var p savePersonaPayload
		if err := decode(cmd, &p); err != nil {
			return nil, err
		}
		return o.SavePersona(ctx, p.ID, p.Name, p.Prompt)

	case ActionDeletePersona:
		var p personaIDPayload
		if err := decode(cmd, &p); err != nil {
			return nil, err
		}
		return o.DeletePersona(ctx, p.PersonaID)

	case ActionSetActivePersona:
		var p personaIDPayload
		if err := decode(cmd, &p); err != nil {
			return nil, err
		}
		return o.SetActivePersona(ctx, p.PersonaID)

	case ActionGetSettings:
		var p getSettingsPayload
		if err := decode(cmd, &p); err != nil {
			return nil, err
		}
		return o.GetSettings(ctx, p.Keys)

	case ActionSaveSettings:
		var values map[string]interface{}
		if err := decode(cmd, &values); err != nil {
			return nil, err
		}
		if err := o.SaveSettings(ctx, values); err != nil {
			return nil, err
		}
		return map[string]bool{"saved": true}, nil

	default:
		return nil, &types.UnknownActionError{Action: string(cmd.Action)}
	}
}

func decode(cmd Command, out interface{}) error {
	if len(cmd.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(cmd.Data, out); err != nil {
		return types.Validationf("malformed %s payload: %v", cmd.Action, err)
	}
	return nil
}

// String implements fmt.Stringer for log lines.
func (c Command) String() string {
	return fmt.Sprintf("command{action=%s, payload=%dB}", c.Action, len(c.Data))
}
