package main

import (
	"fmt"
	"io"
	"strings"

	linerpkg "github.com/peterh/liner"
	"github.com/sirupsen/logrus"
)

var consoleCommands = []string{
	"list", "apply", "clear", "remove", "hide", "restore",
	"hidden", "topmost", "set", "help", "exit", "quit",
}

// runConsole drives the interactive shell. One dispatcher and one
// database handle live for the whole session.
func runConsole(app *App) error {
	line := linerpkg.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	line.SetCompleter(func(l string) []string {
		var out []string
		for _, c := range consoleCommands {
			if strings.HasPrefix(c, strings.ToLower(l)) {
				out = append(out, c)
			}
		}
		return out
	})

	fmt.Println("WinShield console. Type 'help' for commands, 'exit' to leave.")

	for {
		input, err := line.Prompt("winshield> ")
		if err == linerpkg.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		cmd := strings.ToLower(fields[0])
		// Titles may contain spaces, so everything after the command
		// word is one argument unless the command takes two.
		rest := strings.TrimSpace(strings.TrimPrefix(input, fields[0]))

		var cmdErr error
		switch cmd {
		case "help":
			printConsoleHelp()
		case "list", "ls":
			cmdErr = runList()
		case "apply":
			cmdErr = requireArg(rest, "apply <window>", func(arg string) error {
				autoUnload := app.store.Setting("auto_unload", "on") == "on"
				return doApply(app, arg, autoUnload)
			})
		case "clear":
			cmdErr = requireArg(rest, "clear <window>", func(arg string) error {
				return runClear(app, arg)
			})
		case "remove":
			cmdErr = requireArg(rest, "remove <window>", func(arg string) error {
				return runRemove(app, arg)
			})
		case "hide":
			cmdErr = requireArg(rest, "hide <window>", func(arg string) error {
				return runHide(app, arg)
			})
		case "restore":
			cmdErr = requireArg(rest, "restore <window|all>", func(arg string) error {
				return runRestore(app, arg)
			})
		case "hidden":
			cmdErr = runHidden(app)
		case "topmost":
			args := strings.Fields(rest)
			if len(args) != 2 {
				cmdErr = fmt.Errorf("usage: topmost <window> <on|off>")
			} else {
				cmdErr = runTopmost(args[0], args[1])
			}
		case "set":
			cmdErr = runSet(app, strings.Fields(rest))
		case "exit", "quit":
			return nil
		default:
			fmt.Printf("Unknown command %q, type 'help'\n", cmd)
		}

		if cmdErr != nil {
			logrus.Errorf("%v", cmdErr)
		}
	}
}

func requireArg(rest, usage string, fn func(string) error) error {
	if rest == "" {
		return fmt.Errorf("usage: %s", usage)
	}
	return fn(rest)
}

func runSet(app *App, args []string) error {
	if len(args) == 0 {
		fmt.Printf("auto_unload = %s\n", app.store.Setting("auto_unload", "on"))
		return nil
	}
	if len(args) != 2 || args[0] != "auto_unload" || (args[1] != "on" && args[1] != "off") {
		return fmt.Errorf("usage: set auto_unload <on|off>")
	}
	return app.store.SetSetting(args[0], args[1])
}

func printConsoleHelp() {
	fmt.Print(`Commands:
  list                     List visible windows and their capture state
  apply <window>           Exclude a window from screen capture
  clear <window>           Make a window visible to capture again
  remove <window>          Unload the agent from a window's process
  hide <window>            Hide a window from the desktop entirely
  restore <window|all>     Bring hidden windows back
  hidden                   List windows hidden by WinShield
  topmost <window> <on|off> Toggle always-on-top
  set [auto_unload on|off] Show or change preferences
  exit                     Leave the console

Windows may be addressed by handle (0x1A2B or decimal) or by a title
substring.
`)
}
