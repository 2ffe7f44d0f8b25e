package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jbattja/fugata-sub001/internal/api"
	"github.com/jbattja/fugata-sub001/internal/core"
)

// IssueTokenOptions contains optional parameters for the token exchange.
type IssueTokenOptions struct {
	// Upstream is the verifier to check the session token against.
	// May be empty when the server has exactly one upstream configured.
	Upstream string

	// Audience is the service the credential should be minted for.
	Audience string

	// Scopes narrows the delegated scope set. Empty requests everything the
	// matching rule grants.
	Scopes []string

	// Merchant is the tenant the session is operating on.
	Merchant *core.MerchantContext
}

// IssueToken exchanges an upstream session token for a platform credential.
func (c *Client) IssueToken(
	ctx context.Context,
	sessionToken string,
	opts IssueTokenOptions,
) (*core.Credential, string, error) {
	payload := api.IssuePayload{
		Upstream: opts.Upstream,
		Audience: opts.Audience,
		Scopes:   opts.Scopes,
	}
	if opts.Merchant != nil {
		payload.MerchantID = opts.Merchant.ID
		payload.MerchantCode = opts.Merchant.Code
	}
	marshalled, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshalling payload: %w", err)
	}

	// we do this request manually, because the Authorization header must
	// carry the upstream session token, not the client's saved credential.
	req, err := http.NewRequestWithContext(ctx, "POST", c.url().
		setPath(api.IssueTokenRoute).
		build(), bytes.NewReader(marshalled))
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, correlationFromResponse(resp), fmt.Errorf("connection failed: %w", err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode >= 400 {
		return nil, correlationFromResponse(resp), parseErrorResponse(resp)
	}

	var result core.Credential
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, correlationFromResponse(resp), fmt.Errorf("decoding response: %w", err)
	}

	return &result, correlationFromResponse(resp), nil
}
