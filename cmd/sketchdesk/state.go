package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"sketchdesk/internal/config"
	"sketchdesk/internal/host"
	"sketchdesk/internal/models"
	"sketchdesk/internal/settings"
)

func newStateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or change the saved view preferences",
		Long: `Inspect or change the saved view preferences without opening a window.

The commands talk to the same settings store the desktop app uses, so a
value set here is what the next app launch starts with.`,
	}

	cmd.AddCommand(newStateGetCmd(opts))
	cmd.AddCommand(newStateSetCmd(opts))
	cmd.AddCommand(newStateResetCmd(opts))
	return cmd
}

func newStateGetCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print the saved view preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHost(cmd.Context(), opts, func(ctx context.Context, h *host.Host) error {
				state, raw, err := getState(ctx, h)
				if err != nil {
					return err
				}
				if asJSON {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), string(raw))
					return err
				}
				printState(cmd.OutOrStdout(), state)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON")
	return cmd
}

func newStateSetCmd(opts *rootOptions) *cobra.Command {
	var (
		theme    string
		docked   bool
		viewMode bool
		zenMode  bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change saved view preferences",
		Long: `Change saved view preferences. Only the flags given are changed; the rest
keep their saved values.`,
		Example: `  sketchdesk state set --theme dark
  sketchdesk state set --sidebar-docked=false --zen-mode`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("theme") && !flags.Changed("sidebar-docked") &&
				!flags.Changed("view-mode") && !flags.Changed("zen-mode") {
				return fmt.Errorf("nothing to set: pass at least one of --theme, --sidebar-docked, --view-mode, --zen-mode")
			}

			return withHost(cmd.Context(), opts, func(ctx context.Context, h *host.Host) error {
				state, _, err := getState(ctx, h)
				if err != nil {
					return err
				}

				if flags.Changed("theme") {
					t, err := models.ParseTheme(theme)
					if err != nil {
						return err
					}
					state.Theme = t
				}
				if flags.Changed("sidebar-docked") {
					state.SidebarDocked = docked
				}
				if flags.Changed("view-mode") {
					state.ViewModeEnabled = viewMode
				}
				if flags.Changed("zen-mode") {
					state.ZenModeEnabled = zenMode
				}

				if _, err := h.Invoke(ctx, host.CmdSetAppState, host.SetAppStateArgs{NewState: &state}); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				printSuccess(out, "Preferences saved")
				printState(out, state)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "", "board theme: light, dark or system")
	cmd.Flags().BoolVar(&docked, "sidebar-docked", true, "dock the sidebar when the window is wide enough")
	cmd.Flags().BoolVar(&viewMode, "view-mode", false, "open the board in view mode")
	cmd.Flags().BoolVar(&zenMode, "zen-mode", false, "open the board in zen mode")
	return cmd
}

func newStateResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved view preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, err := openStore(headless(cfg), nil, newLogger(cfg))
			if err != nil {
				return err
			}
			if err := settings.ResetViewState(store); err != nil {
				store.Close()
				return err
			}
			if err := store.Close(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Preferences reset to defaults")
			printState(out, models.DefaultViewState())
			return nil
		},
	}
}

// withHost runs fn against a host over the configured store and shuts the
// host down afterwards, which saves the store.
func withHost(ctx context.Context, opts *rootOptions, fn func(context.Context, *host.Host) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	store, err := openStore(headless(cfg), nil, log)
	if err != nil {
		return err
	}
	h, err := host.New(store, host.Options{PoolSize: 1, Logger: log})
	if err != nil {
		store.Close()
		return err
	}
	defer h.Shutdown()

	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, h)
}

// headless turns off the auto-save loop; the store is saved on close.
func headless(cfg *config.Config) *config.Config {
	c := *cfg
	c.Store.AutoSave = config.Duration{}
	return &c
}

func getState(ctx context.Context, h *host.Host) (models.ViewState, json.RawMessage, error) {
	raw, err := h.Invoke(ctx, host.CmdGetAppState, nil)
	if err != nil {
		return models.ViewState{}, nil, err
	}
	var state models.ViewState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.ViewState{}, nil, fmt.Errorf("decode app state: %w", err)
	}
	return state, raw, nil
}

func printState(w io.Writer, state models.ViewState) {
	printKeyValue(w, "theme", string(state.Theme))
	printKeyValue(w, "sidebar docked", strconv.FormatBool(state.SidebarDocked))
	printKeyValue(w, "view mode", strconv.FormatBool(state.ViewModeEnabled))
	printKeyValue(w, "zen mode", strconv.FormatBool(state.ZenModeEnabled))
}
