package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ResolveShare fetches a publicly shared document by its share token.
func (c *Client) ResolveShare(ctx context.Context, shareToken string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, "/mindmaps/public/"+url.PathEscape(shareToken), "", &doc); err != nil {
		return nil, fmt.Errorf("resolve share: %w", err)
	}
	return &doc, nil
}

// ResolveDocument fetches a document by id using the session's bearer
// credential. A successful resolution implies edit rights.
func (c *Client) ResolveDocument(ctx context.Context, id, bearer string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, "/mindmaps/"+url.PathEscape(id), bearer, &doc); err != nil {
		return nil, fmt.Errorf("resolve document %s: %w", id, err)
	}
	return &doc, nil
}

// AppendHistory submits an audit record and returns the entry the
// backend created, which may be empty for backends that answer 204.
func (c *Client) AppendHistory(ctx context.Context, id, bearer string, record HistoryRecord) (json.RawMessage, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/mindmaps/"+url.PathEscape(id)+"/history", bearer, record)
	if err != nil {
		return nil, fmt.Errorf("append history %s: %w", id, err)
	}
	return body, nil
}
