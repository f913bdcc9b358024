// Package hub implements the WebSocket transport layer.
//
// The hub upgrades inbound connections, assigns each a connection-
// scoped client id, soft-verifies the optional bearer credential, and
// owns room membership. Outbound traffic goes through per-client send
// queues with drop-on-overflow; inbound frames are decoded into event
// envelopes and handed to the registered Handler.
package hub
