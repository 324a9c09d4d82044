// Package ptr builds pointers to literals for schema fields that
// distinguish unset from zero.
package ptr

// Bool returns &b. Tool annotation hints are pointer-typed so false
// and unset stay distinct.
func Bool(b bool) *bool { return &b }
