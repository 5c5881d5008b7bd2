/*
Package session serializes access to stored transcripts.

Several runners (or the HTTP API and a runner) may write the same session;
the Manager holds a per-session lock in process and, when configured with a
ports.DistributedLocker, a lock shared across processes.
*/
package session
