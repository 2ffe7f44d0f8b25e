package client

import (
	"context"

	"github.com/jbattja/fugata-sub001/internal/api"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// FetchAction retrieves the pending redirect action for a payment.
func (c *Client) FetchAction(ctx context.Context, paymentID string) (*core.RedirectAction, string, error) {
	var resp api.ActionResponse
	correlation, err := c.get(ctx, c.url().
		setPath(api.FetchActionRoute).
		setPathParam("paymentId", paymentID).
		build(), &resp)
	return resp.Action, correlation, err
}

// DecryptAction opens an encrypted redirect action server-side.
func (c *Client) DecryptAction(ctx context.Context, envelope string) (*core.RedirectAction, string, error) {
	var resp api.ActionResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.DecryptActionRoute).
		build(), api.DecryptPayload{EncryptedAction: envelope}, &resp)
	return resp.Action, correlation, err
}

// EncryptAction seals a redirect action. Requires a credential with the
// payments:write scope.
func (c *Client) EncryptAction(ctx context.Context, action *core.RedirectAction) (string, string, error) {
	var resp api.EnvelopeResponse
	correlation, err := c.post(ctx, c.url().
		setPath(api.EncryptActionRoute).
		build(), api.EncryptPayload{Action: action}, &resp)
	return resp.EncryptedAction, correlation, err
}
