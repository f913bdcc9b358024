// Package event defines the wire protocol between clients and the relay.
//
// Every message in either direction is one JSON text frame holding an
// Envelope: a named event, an optional room, and an event-specific payload.
// Payload schemas are a closed set of typed variants; unrecognized fields
// are dropped on decode and unknown event names are ignored by the
// dispatcher.
package event
