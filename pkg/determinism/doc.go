// Package determinism replays an episode twice and checks that nothing but
// timestamps differs between the runs.
package determinism
