package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stevedomin/termtable"

	"winshield/shared"
	"winshield/store"
	"winshield/winutil"
)

func setupCommands() {
	rootCmd = &cobra.Command{
		Use:   "winshield",
		Short: "WinShield - hide windows from screen capture",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "db", "winshield.db", "Path to the state database")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List visible windows and their capture state",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runList(); err != nil {
				logrus.Errorf("%v", err)
				os.Exit(1)
			}
		},
	}

	applyCmd = &cobra.Command{
		Use:   "apply <window>",
		Short: "Exclude a window from screen capture",
		Long:  "Exclude a window from screen capture. The window may be given as a handle (0x1A2B or decimal) or a title substring.",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runApply(app, cmd, args[0])
			})
		},
	}
	applyCmd.Flags().BoolVar(&autoUnloadFlag, "auto-unload", true, "Unload the agent right after the change is applied")

	clearCmd = &cobra.Command{
		Use:   "clear <window>",
		Short: "Make a window visible to screen capture again",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runClear(app, args[0])
			})
		},
	}

	removeCmd = &cobra.Command{
		Use:   "remove <window>",
		Short: "Unload the agent from a window's process",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runRemove(app, args[0])
			})
		},
	}

	hideCmd = &cobra.Command{
		Use:   "hide <window>",
		Short: "Hide a window from the desktop entirely",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runHide(app, args[0])
			})
		},
	}

	restoreCmd = &cobra.Command{
		Use:   "restore <window|all>",
		Short: "Bring a hidden window back",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runRestore(app, args[0])
			})
		},
	}

	hiddenCmd = &cobra.Command{
		Use:   "hidden",
		Short: "List windows hidden by WinShield",
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runHidden(app)
			})
		},
	}

	topmostCmd = &cobra.Command{
		Use:   "topmost <window> <on|off>",
		Short: "Toggle a window's always-on-top state",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if err := runTopmost(args[0], args[1]); err != nil {
				logrus.Errorf("%v", err)
				os.Exit(1)
			}
		},
	}

	consoleCmd = &cobra.Command{
		Use:   "console",
		Short: "Start the interactive console",
		Run: func(cmd *cobra.Command, args []string) {
			withApp(func(app *App) error {
				return runConsole(app)
			})
		},
	}

	rootCmd.AddCommand(listCmd, applyCmd, clearCmd, removeCmd,
		hideCmd, restoreCmd, hiddenCmd, topmostCmd, consoleCmd)
}

func runList() error {
	windows, err := winutil.ListWindows(uint32(os.Getpid()))
	if err != nil {
		return err
	}
	if len(windows) == 0 {
		logrus.Warn("No visible windows found")
		return nil
	}

	t := termtable.NewTable(nil, &termtable.TableOptions{
		Padding:      2,
		UseSeparator: false,
	})
	t.SetHeader([]string{"Handle", "PID", "Process", "Title", "Captured", "TopMost"})

	for _, w := range windows {
		captured := "yes"
		if w.Excluded {
			captured = "NO"
		}
		topmost := ""
		if w.TopMost {
			topmost = "yes"
		}
		t.AddRow([]string{
			fmt.Sprintf("0x%08X", w.Handle),
			strconv.FormatUint(uint64(w.PID), 10),
			w.Process,
			truncate(w.Title, 48),
			captured,
			topmost,
		})
	}
	fmt.Println(t.Render())
	return nil
}

func runApply(app *App, cmd *cobra.Command, arg string) error {
	autoUnload := autoUnloadFlag
	if !cmd.Flags().Changed("auto-unload") {
		autoUnload = app.store.Setting("auto_unload", "on") == "on"
	}
	return doApply(app, arg, autoUnload)
}

func doApply(app *App, arg string, autoUnload bool) error {
	w, err := resolveWindow(arg)
	if err != nil {
		return err
	}

	logrus.Debugf("Applying capture exclusion to 0x%X (pid %d)", w.Handle, w.PID)
	res := <-app.dispatcher.Apply(w.Handle, shared.ModeExcludeFromCapture, autoUnload)
	if res.Err != nil {
		return res.Err
	}

	err = app.store.RecordExclusion(&store.Exclusion{
		Handle:  uint64(w.Handle),
		Title:   w.Title,
		Process: w.Process,
		Mode:    uint32(shared.ModeExcludeFromCapture),
	})
	if err != nil {
		logrus.Warnf("Exclusion applied but not recorded: %v", err)
	}
	logrus.Infof("Window 0x%X (%s) is now excluded from capture", w.Handle, w.Title)
	return nil
}

func runClear(app *App, arg string) error {
	w, err := resolveWindow(arg)
	if err != nil {
		return err
	}

	res := <-app.dispatcher.Apply(w.Handle, shared.ModeNormal, false)
	if res.Err != nil {
		return res.Err
	}

	if err := app.store.ClearExclusion(uint64(w.Handle)); err != nil {
		logrus.Warnf("Exclusion cleared but the record remains: %v", err)
	}
	logrus.Infof("Window 0x%X (%s) is visible to capture again", w.Handle, w.Title)
	return nil
}

func runRemove(app *App, arg string) error {
	w, err := resolveWindow(arg)
	if err != nil {
		return err
	}

	res := <-app.dispatcher.Remove(w.Handle)
	if res.Err != nil {
		return res.Err
	}
	logrus.Infof("Agent removed from the process owning 0x%X", w.Handle)
	return nil
}

func runHide(app *App, arg string) error {
	w, err := resolveWindow(arg)
	if err != nil {
		return err
	}

	// Record before hiding. A hidden window without a record could not
	// be brought back by 'restore', so a failed save aborts the hide.
	err = app.store.SaveHidden(&store.HiddenWindow{
		Handle:  uint64(w.Handle),
		Title:   w.Title,
		Process: w.Process,
		PID:     w.PID,
	})
	if err != nil {
		return fmt.Errorf("not hiding 0x%X, could not record it: %v", w.Handle, err)
	}

	if err := winutil.Hide(w.Handle); err != nil {
		app.store.DeleteHidden(uint64(w.Handle))
		return err
	}
	logrus.Infof("Window 0x%X (%s) hidden, restore it with 'restore'", w.Handle, w.Title)
	return nil
}

func runRestore(app *App, arg string) error {
	if strings.EqualFold(arg, "all") {
		rows, err := app.store.ListHidden()
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			logrus.Warn("No hidden windows on record")
			return nil
		}
		for _, row := range rows {
			if err := winutil.Restore(uintptr(row.Handle)); err != nil {
				logrus.Warnf("Could not restore 0x%X (%s): %v", row.Handle, row.Title, err)
			} else {
				logrus.Infof("Restored 0x%X (%s)", row.Handle, row.Title)
			}
			if err := app.store.DeleteHidden(row.Handle); err != nil {
				logrus.Warnf("Could not drop record for 0x%X: %v", row.Handle, err)
			}
		}
		return nil
	}

	row, err := resolveHidden(app, arg)
	if err != nil {
		return err
	}
	if err := winutil.Restore(uintptr(row.Handle)); err != nil {
		return err
	}
	if err := app.store.DeleteHidden(row.Handle); err != nil {
		logrus.Warnf("Could not drop record for 0x%X: %v", row.Handle, err)
	}
	logrus.Infof("Restored 0x%X (%s)", row.Handle, row.Title)
	return nil
}

func runHidden(app *App) error {
	rows, err := app.store.ListHidden()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		logrus.Info("No hidden windows on record")
		return nil
	}

	t := termtable.NewTable(nil, &termtable.TableOptions{
		Padding:      2,
		UseSeparator: false,
	})
	t.SetHeader([]string{"Handle", "PID", "Process", "Title", "Hidden Since"})
	for _, row := range rows {
		t.AddRow([]string{
			fmt.Sprintf("0x%08X", row.Handle),
			strconv.FormatUint(uint64(row.PID), 10),
			row.Process,
			truncate(row.Title, 48),
			row.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	fmt.Println(t.Render())
	return nil
}

func runTopmost(arg, state string) error {
	w, err := resolveWindow(arg)
	if err != nil {
		return err
	}

	var on bool
	switch strings.ToLower(state) {
	case "on":
		on = true
	case "off":
		on = false
	default:
		return fmt.Errorf("state must be 'on' or 'off', got %q", state)
	}

	if err := winutil.SetTopMost(w.Handle, on); err != nil {
		return err
	}
	logrus.Infof("Window 0x%X topmost = %v", w.Handle, on)
	return nil
}

// resolveWindow turns a handle string or a title substring into a live
// window.
func resolveWindow(arg string) (winutil.WindowInfo, error) {
	if handle, ok := parseHandle(arg); ok {
		if !winutil.IsWindow(handle) {
			return winutil.WindowInfo{}, fmt.Errorf("0x%X is not a live window handle", handle)
		}
		// Enrich from the window list when we can find it there.
		if all, err := winutil.ListWindows(uint32(os.Getpid())); err == nil {
			for _, w := range all {
				if w.Handle == handle {
					return w, nil
				}
			}
		}
		return winutil.WindowInfo{Handle: handle, PID: winutil.OwnerPID(handle)}, nil
	}

	all, err := winutil.ListWindows(uint32(os.Getpid()))
	if err != nil {
		return winutil.WindowInfo{}, err
	}
	matches := winutil.FilterByTitle(all, arg)
	switch len(matches) {
	case 0:
		return winutil.WindowInfo{}, fmt.Errorf("no window title matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		var titles []string
		for _, m := range matches {
			titles = append(titles, fmt.Sprintf("0x%X %q", m.Handle, m.Title))
		}
		return winutil.WindowInfo{}, fmt.Errorf("%q is ambiguous, matches: %s", arg, strings.Join(titles, ", "))
	}
}

// resolveHidden finds a hidden-window record by handle or title
// substring. Hidden windows do not show up in the live window list.
func resolveHidden(app *App, arg string) (store.HiddenWindow, error) {
	rows, err := app.store.ListHidden()
	if err != nil {
		return store.HiddenWindow{}, err
	}

	if handle, ok := parseHandle(arg); ok {
		for _, row := range rows {
			if row.Handle == uint64(handle) {
				return row, nil
			}
		}
		return store.HiddenWindow{}, fmt.Errorf("no hidden window with handle 0x%X", handle)
	}

	needle := strings.ToLower(arg)
	var matches []store.HiddenWindow
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Title), needle) {
			matches = append(matches, row)
		}
	}
	switch len(matches) {
	case 0:
		return store.HiddenWindow{}, fmt.Errorf("no hidden window title matches %q", arg)
	case 1:
		return matches[0], nil
	default:
		return store.HiddenWindow{}, fmt.Errorf("%q matches %d hidden windows, use the handle", arg, len(matches))
	}
}

// parseHandle accepts 0x-prefixed hex or plain decimal handles.
func parseHandle(s string) (uintptr, bool) {
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err := strconv.ParseUint(rest, 16, 64)
		if err != nil || v == 0 {
			return 0, false
		}
		return uintptr(v), true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uintptr(v), true
}

// truncate cuts on rune boundaries so multibyte titles stay intact.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
