package history

import "time"

// Options configure the history plugin.
type Options struct {
	// Depth is the maximum number of undo events kept.
	Depth int

	// NewGroupDelay is the pause after which the next change starts a new
	// undo event instead of extending the current one.
	NewGroupDelay time.Duration
}

// Option adjusts the history options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Depth:         100,
		NewGroupDelay: 500 * time.Millisecond,
	}
}

// WithDepth sets the maximum number of undo events kept.
func WithDepth(depth int) Option {
	return func(o *Options) { o.Depth = depth }
}

// WithNewGroupDelay sets the pause that separates undo events.
func WithNewGroupDelay(d time.Duration) Option {
	return func(o *Options) { o.NewGroupDelay = d }
}
