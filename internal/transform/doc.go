// Package transform implements the step engine: atomic, invertible,
// position-mappable document edits.
//
// A Step is a first-class description of one edit. Applying a step never
// mutates the input document; it returns a StepResult holding either the
// new document or a failure reason. Every step can be inverted against the
// document it was applied to, producing the step that exactly restores the
// previous content, and can be mapped through the position changes made by
// other steps.
//
// The step vocabulary is deliberately small: ReplaceStep covers insertion,
// deletion, splitting, and joining (the latter two via open slices), and
// AddMarkStep/RemoveMarkStep cover mark changes. Each applied step yields a
// StepMap; ordered compositions of step maps form a Mapping, which
// translates any stored position forward or backward across an arbitrary
// edit sequence.
package transform
