// Command inkwell is a terminal story editor built on an immutable
// document model with transactional edits, undo history, and Lua-scripted
// decorations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/inkwell/internal/app"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to the configuration file")
	flag.StringVar(&configPath, "c", "", "path to the configuration file (shorthand)")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "inkwell: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	a, err := app.New(app.Options{ConfigPath: configPath})
	if err != nil {
		return err
	}
	defer a.Shutdown()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run() }()

	select {
	case err := <-errCh:
		if errors.Is(err, app.ErrQuit) {
			return nil
		}
		return err
	case <-sigCh:
		return nil
	}
}
