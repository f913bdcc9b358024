// Package presence tracks the live participants of each room.
//
// Participants are keyed by connection-scoped client id within a room
// and carry transient collaboration state (cursor position, active
// selection). Entries appear on the first announcement, mutate on
// cursor/selection events, and disappear on leave or disconnect.
package presence
