/*
Package ports defines the driven ports (interfaces) of the turnstile game master.

These interfaces decouple the orchestrator from external implementations, allowing
sessions to run against any turn-based environment and to persist transcripts into
various storage backends.

# Key Interfaces

  - Environment: the narrow reset / observe / step / close contract of a game.
  - TranscriptStore: persists and loads session transcripts.
  - DistributedLocker: coordinates concurrent writes to the same session across replicas.
*/
package ports
