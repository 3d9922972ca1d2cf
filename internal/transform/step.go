package transform

import "github.com/dshills/inkwell/internal/doc"

// Step is one atomic document edit. Steps are immutable descriptions; they
// apply to the specific document they were created for, since the
// positions stored in them only make sense for that document.
type Step interface {
	// Apply applies the step to the document, returning a result that
	// holds either the transformed document or a failure reason. A
	// failed step is a value, not an error condition: callers treat it
	// as "this edit cannot be made" and move on.
	Apply(d *doc.Node) StepResult

	// GetMap returns the step map describing the position changes this
	// step makes.
	GetMap() *StepMap

	// Invert returns a step that undoes this one. It needs the document
	// the step was applied to, so it can capture the replaced content.
	Invert(d *doc.Node) Step

	// Map translates the step's positions through a mapping, returning
	// an adjusted step, or nil when the content the step applied to has
	// been entirely deleted and the step now does nothing.
	Map(m Mappable) Step

	// Merge tries to combine this step with another one applied
	// directly after it, returning the combined step and true on
	// success.
	Merge(other Step) (Step, bool)
}

// StepResult is the outcome of applying a step: a new document on success,
// or a human-readable failure reason.
type StepResult struct {
	// Doc is the transformed document, nil on failure.
	Doc *doc.Node

	// Failed holds the failure reason, empty on success.
	Failed string
}

// OK creates a successful step result.
func OK(d *doc.Node) StepResult { return StepResult{Doc: d} }

// Fail creates a failed step result.
func Fail(reason string) StepResult { return StepResult{Failed: reason} }

// FromReplace runs a document replacement and converts the outcome into a
// step result, turning replace and range errors into failure values.
func FromReplace(d *doc.Node, from, to int, slice *doc.Slice) StepResult {
	replaced, err := d.Replace(from, to, slice)
	if err != nil {
		return Fail(err.Error())
	}
	return OK(replaced)
}
