package settings

import (
	"encoding/json"
	"fmt"

	"fyne.io/fyne/v2"
)

// PreferencesStore keeps values in the fyne application preferences, each
// encoded as a JSON string. fyne persists them itself, so Save is a no-op.
type PreferencesStore struct {
	prefs fyne.Preferences
}

func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{prefs: prefs}
}

func (p *PreferencesStore) Get(key string) (json.RawMessage, bool) {
	v := p.prefs.String(key)
	if v == "" {
		return nil, false
	}
	return json.RawMessage(v), true
}

func (p *PreferencesStore) Set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	p.prefs.SetString(key, string(data))
	return nil
}

func (p *PreferencesStore) Delete(key string) error {
	p.prefs.RemoveValue(key)
	return nil
}

func (p *PreferencesStore) Save() error  { return nil }
func (p *PreferencesStore) Close() error { return nil }

var _ Store = (*PreferencesStore)(nil)
