// Package outcome normalizes the close-time reward structure of an environment
// into an immutable domain.Outcome, classifies sessions into metrics and
// exposes the pluggable scorers that turn transcripts into episode scores.
package outcome
