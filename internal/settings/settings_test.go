package settings

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchdesk/internal/logger"
	"sketchdesk/internal/models"
)

func openTemp(t *testing.T, interval time.Duration) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	store, err := OpenFileStore(path, interval, logger.NewNop())
	require.NoError(t, err)
	return store, path
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	store, path := openTemp(t, 0)

	require.NoError(t, store.Set("theme", "dark"))
	require.NoError(t, store.Set("zenModeEnabled", true))
	require.NoError(t, store.Close())

	reopened, err := OpenFileStore(path, 0, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	raw, ok := reopened.Get("theme")
	require.True(t, ok)
	assert.JSONEq(t, `"dark"`, string(raw))

	raw, ok = reopened.Get("zenModeEnabled")
	require.True(t, ok)
	assert.JSONEq(t, `true`, string(raw))
}

func TestFileStoreSaveOnlyWhenDirty(t *testing.T) {
	store, path := openTemp(t, 0)
	defer store.Close()

	require.NoError(t, store.Save())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "clean store must not create the file")

	require.NoError(t, store.Set("viewModeEnabled", false))
	require.NoError(t, store.Save())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileStoreAutoSave(t *testing.T) {
	store, path := openTemp(t, 10*time.Millisecond)
	defer store.Close()

	require.NoError(t, store.Set("theme", "light"))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && bytes.Contains(data, []byte(`"light"`))
	}, time.Second, 10*time.Millisecond)
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := OpenFileStore(path, 0, logger.NewNop())
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.Get("theme")
	assert.False(t, ok)
}

func TestFileStoreNullFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))

	store, err := OpenFileStore(path, 0, logger.NewNop())
	require.NoError(t, err)

	_, ok := store.Get("theme")
	assert.False(t, ok)
	require.NoError(t, SaveViewState(store, models.ViewState{Theme: models.ThemeDark}))
	require.NoError(t, store.Close())

	reopened, err := OpenFileStore(path, 0, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, models.ThemeDark, LoadViewState(reopened, logger.NewNop()).Theme)
}

func TestFileStoreRejectsWritesAfterClose(t *testing.T) {
	store, _ := openTemp(t, 0)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Set("theme", "dark"), ErrClosed)
	assert.NoError(t, store.Close())
}

func TestLoadViewStateDefaults(t *testing.T) {
	store, _ := openTemp(t, 0)
	defer store.Close()

	assert.Equal(t, models.DefaultViewState(), LoadViewState(store, logger.NewNop()))
}

func TestSaveLoadViewStateRoundTrip(t *testing.T) {
	store, path := openTemp(t, 0)

	want := models.ViewState{
		Theme:           models.ThemeDark,
		SidebarDocked:   false,
		ViewModeEnabled: true,
		ZenModeEnabled:  true,
	}
	require.NoError(t, SaveViewState(store, want))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, "dark", onDisk["theme"])
	assert.Equal(t, false, onDisk["defaultSidebarDockedPreference"])

	reopened, err := OpenFileStore(path, 0, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, want, LoadViewState(reopened, logger.NewNop()))
}

func TestLoadViewStateInvalidThemeFallsBack(t *testing.T) {
	store, _ := openTemp(t, 0)
	defer store.Close()

	require.NoError(t, store.Set(KeyTheme, "sepia"))
	require.NoError(t, store.Set(KeyZenModeEnabled, "yes"))
	require.NoError(t, store.Set(KeyViewModeEnabled, true))

	got := LoadViewState(store, logger.NewNop())
	assert.Equal(t, models.ThemeLight, got.Theme)
	assert.False(t, got.ZenModeEnabled)
	assert.True(t, got.ViewModeEnabled)
}

func TestSaveViewStateValidates(t *testing.T) {
	store, _ := openTemp(t, 0)
	defer store.Close()

	err := SaveViewState(store, models.ViewState{Theme: "neon"})
	assert.Error(t, err)
	_, ok := store.Get(KeyTheme)
	assert.False(t, ok)
}

func TestResetViewState(t *testing.T) {
	store, _ := openTemp(t, 0)
	defer store.Close()

	require.NoError(t, SaveViewState(store, models.ViewState{Theme: models.ThemeDark}))
	require.NoError(t, ResetViewState(store))
	assert.Equal(t, models.DefaultViewState(), LoadViewState(store, logger.NewNop()))
}

func TestPreferencesStore(t *testing.T) {
	app := test.NewTempApp(t)
	store := NewPreferencesStore(app.Preferences())

	_, ok := store.Get(KeyTheme)
	assert.False(t, ok)

	want := models.ViewState{Theme: models.ThemeDark, SidebarDocked: true, ZenModeEnabled: true}
	require.NoError(t, SaveViewState(store, want))
	assert.Equal(t, want, LoadViewState(store, logger.NewNop()))

	require.NoError(t, store.Delete(KeyTheme))
	_, ok = store.Get(KeyTheme)
	assert.False(t, ok)
}

func TestWindowSizeRoundTrip(t *testing.T) {
	store, path := openTemp(t, 0)

	_, _, ok := LoadWindowSize(store)
	assert.False(t, ok)

	require.NoError(t, SaveWindowSize(store, 1440, 900.5))
	require.NoError(t, store.Close())

	reopened, err := OpenFileStore(path, 0, logger.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	w, h, ok := LoadWindowSize(reopened)
	require.True(t, ok)
	assert.Equal(t, float32(1440), w)
	assert.Equal(t, float32(900.5), h)

	// View preferences are untouched by the geometry keys.
	assert.Equal(t, models.DefaultViewState(), LoadViewState(reopened, logger.NewNop()))
}

func TestWindowSizeRejectsUnusableValues(t *testing.T) {
	store := NewMemoryStore()

	var verr *models.ValidationError
	assert.ErrorAs(t, SaveWindowSize(store, 0, 600), &verr)

	require.NoError(t, store.Set(KeyWindowWidth, -5))
	require.NoError(t, store.Set(KeyWindowHeight, 600))
	_, _, ok := LoadWindowSize(store)
	assert.False(t, ok)

	require.NoError(t, store.Set(KeyWindowWidth, "wide"))
	_, _, ok = LoadWindowSize(store)
	assert.False(t, ok)
}
