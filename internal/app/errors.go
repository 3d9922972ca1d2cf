package app

import "errors"

// ErrQuit signals a normal user-requested exit from the run loop.
var ErrQuit = errors.New("quit")
