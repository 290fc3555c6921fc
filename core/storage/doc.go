// Package storage provides the durable key/value store that holds the
// persisted session snapshot between process runs: the bearer access token,
// the serialized user identity, and the cached role flags.
//
// Three backends cover the usual deployments:
//
//   - Memory: ephemeral, for tests and one-shot processes
//   - File: a JSON snapshot on disk, the localStorage analog for CLIs
//   - Redis: shared storage for multi-process clients
//
// The session store is the sole writer; UI layers observe session state
// through its subscription mechanism and must not write these keys directly,
// or the in-memory and persisted views will drift apart.
package storage
