package models

// ConversionRequest is the transient, validated form of one convert call.
// CategoryHint is the optional client-supplied category; empty means infer.
type ConversionRequest struct {
	SourceExt    string
	Target       string
	CategoryHint string
}
