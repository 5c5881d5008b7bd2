/*
Package domain contains the core domain models of the turnstile game master.

It defines the shared event log, the context blocks handed to agents, the reward
structure returned by environments and the immutable outcome records derived from it.
This package is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Event / EventLog: the append-only record of narration, agent actions and system messages.
  - Message: the context block an agent receives ({role: "user", content: ...}).
  - RewardStructure: the raw (rewards, details) pair produced by an environment's Close.
  - Outcome: the normalized, immutable per-agent end-of-episode record.
  - Transcript: the logged key/value stream of one session, consumed by scorers and stores.
*/
package domain
