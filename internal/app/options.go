package app

import "github.com/gdamore/tcell/v2"

// Options configure application startup.
type Options struct {
	// ConfigPath is the configuration file to load and watch. Empty uses
	// the defaults plus environment overrides.
	ConfigPath string

	// Screen is the terminal to render to. Nil allocates the real one;
	// tests inject a simulation screen.
	Screen tcell.Screen
}
