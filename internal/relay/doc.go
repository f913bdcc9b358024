// Package relay routes inbound mindmap events: immediate broadcast to
// room peers, buffered re-emission through the flush pipeline, presence
// bookkeeping, and a rate-limited audit trail forwarded to the document
// backend.
//
// Key behaviors:
//   - Join resolves the document through the backend (share token or
//     bearer-authorized id) and derives the room key server-side; a
//     failed resolution refuses the join silently.
//   - Mutation events relay to peers before any audit work, and audit
//     delivery runs on its own goroutine; relay latency never waits on
//     the backend.
//   - Drag gestures coalesce into a single net-displacement audit
//     record at gesture end; continuous action kinds are throttled per
//     room and kind, discrete ones (add, delete, connect, restore,
//     move) always log.
//   - Audit failures surface one history:log:error event to the
//     originating connection and are never retried.
package relay
