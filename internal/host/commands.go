package host

import (
	"context"
	"encoding/json"
	"fmt"

	"sketchdesk/internal/models"
	"sketchdesk/internal/settings"
)

// Command names understood by the host.
const (
	CmdGetAppState  = "get_app_state"
	CmdSetAppState  = "set_app_state"
	CmdOpenDialog   = "open_dialog"
	CmdOpenDevtools = "open_devtools"
	CmdReloadPage   = "reload_page"
	CmdRestartApp   = "restart_app"
)

// SetAppStateArgs is the set_app_state payload.
type SetAppStateArgs struct {
	NewState *models.ViewState `json:"newState"`
}

// SetAppStateConfirmation is returned by a successful set_app_state.
const SetAppStateConfirmation = "saved"

func (h *Host) registerBuiltins() {
	h.Register(CmdGetAppState, h.getAppState)
	h.Register(CmdSetAppState, h.setAppState)
	h.Register(CmdOpenDialog, h.openDialog)

	if h.devMode {
		h.Register(CmdOpenDevtools, h.windowAction(Window.OpenDevtools))
		h.Register(CmdReloadPage, h.windowAction(Window.Reload))
		h.Register(CmdRestartApp, h.windowAction(Window.Restart))
	}
}

func (h *Host) getAppState(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	return settings.LoadViewState(h.store, h.logger), nil
}

func (h *Host) setAppState(ctx context.Context, payload json.RawMessage) (interface{}, error) {
	var args struct {
		NewState json.RawMessage `json:"newState"`
	}
	if len(payload) == 0 {
		return nil, models.NewValidationError("newState", nil, "missing payload")
	}
	if err := json.Unmarshal(payload, &args); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	state, err := decodeViewState(args.NewState)
	if err != nil {
		return nil, err
	}

	if err := settings.SaveViewState(h.store, state); err != nil {
		return nil, err
	}

	h.logger.Info("Host", "set_app_state", state.Fields())
	return SetAppStateConfirmation, nil
}

// decodeViewState requires every field of the record. Missing booleans
// would otherwise decode as false and overwrite stored preferences.
func decodeViewState(raw json.RawMessage) (models.ViewState, error) {
	if len(raw) == 0 {
		return models.ViewState{}, models.NewValidationError("newState", nil, "missing field")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.ViewState{}, fmt.Errorf("decode newState: %w", err)
	}
	if fields == nil {
		return models.ViewState{}, models.NewValidationError("newState", nil, "missing field")
	}
	for _, key := range settings.ViewStateKeys {
		if _, ok := fields[key]; !ok {
			return models.ViewState{}, models.NewValidationError("newState."+key, nil, "missing field")
		}
	}

	var state models.ViewState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.ViewState{}, fmt.Errorf("decode newState: %w", err)
	}
	return state, nil
}

func (h *Host) openDialog(ctx context.Context, _ json.RawMessage) (interface{}, error) {
	w, err := h.currentWindow()
	if err != nil {
		return nil, err
	}
	result, err := w.ShowMessage(ctx, "SketchDesk", "Hello World!")
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("Dialog, was shown. Result: %t", result), nil
}

func (h *Host) windowAction(action func(Window) error) Handler {
	return func(ctx context.Context, _ json.RawMessage) (interface{}, error) {
		w, err := h.currentWindow()
		if err != nil {
			return nil, err
		}
		return nil, action(w)
	}
}
