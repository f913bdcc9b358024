// Package backend provides the client for the document-authority API.
//
// Endpoints used:
//   - GET /mindmaps/public/{shareToken}: resolve a shared document
//   - GET /mindmaps/{id}: resolve an owned document (bearer-authorized)
//   - POST /mindmaps/{id}/history: append an audit entry
//
// The backend is the source of truth for document content, access
// rights, and history persistence; this service never stores any of it.
package backend
