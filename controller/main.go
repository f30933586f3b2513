package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"winshield/dispatch"
	"winshield/inject"
	"winshield/store"
)

const defaultQueueDepth = 16

// Global variables for the controller CLI
var (
	rootCmd    *cobra.Command
	listCmd    *cobra.Command
	applyCmd   *cobra.Command
	clearCmd   *cobra.Command
	removeCmd  *cobra.Command
	hideCmd    *cobra.Command
	restoreCmd *cobra.Command
	hiddenCmd  *cobra.Command
	topmostCmd *cobra.Command
	consoleCmd *cobra.Command

	dbPathFlag     string
	verboseFlag    bool
	autoUnloadFlag bool
)

// ShieldFormatter is a compact logrus formatter with symbol-prefixed lines
type ShieldFormatter struct{}

func (f *ShieldFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	// ANSI color codes
	const (
		cyan   = "\033[36m"
		yellow = "\033[33m"
		red    = "\033[91m"
		gray   = "\033[90m"
		reset  = "\033[0m"
		bold   = "\033[1m"
	)

	timestamp := entry.Time.Format("15:04:05")

	var levelColor string
	var levelSymbol string

	switch entry.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = red
		levelSymbol = "[!]"
	case logrus.WarnLevel:
		levelColor = yellow
		levelSymbol = "[~]"
	case logrus.InfoLevel:
		levelColor = cyan
		levelSymbol = "[+]"
	default:
		levelColor = gray
		levelSymbol = "[*]"
	}

	// Format: [TIME] [SYMBOL] MESSAGE
	output := fmt.Sprintf("%s[%s]%s %s%s%s %s\n",
		gray, timestamp, reset,
		bold+levelColor, levelSymbol, reset,
		entry.Message,
	)

	return []byte(output), nil
}

// App bundles the shared state every command needs.
type App struct {
	store      *store.Store
	injector   *inject.Injector
	dispatcher *dispatch.Dispatcher
}

func newApp() (*App, error) {
	art, err := inject.ArtifactsBesideExecutable()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(dbPathFlag)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %v", dbPathFlag, err)
	}

	inj := inject.New(art)
	return &App{
		store:      st,
		injector:   inj,
		dispatcher: dispatch.New(inj, defaultQueueDepth),
	}, nil
}

func (a *App) Close() {
	a.dispatcher.Close()
	a.store.Close()
}

// withApp runs fn with an initialized App and tears it down afterwards.
func withApp(fn func(*App) error) {
	app, err := newApp()
	if err != nil {
		logrus.Fatalf("Startup failed: %v", err)
	}
	defer app.Close()

	if err := fn(app); err != nil {
		logrus.Errorf("%v", err)
		os.Exit(1)
	}
}

func main() {
	logrus.SetFormatter(&ShieldFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	setupCommands()

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			logrus.SetLevel(logrus.DebugLevel)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
