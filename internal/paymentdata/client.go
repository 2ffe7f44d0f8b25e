package paymentdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jbattja/fugata-sub001/internal/auth"
	"github.com/jbattja/fugata-sub001/internal/core"
)

var _ core.ActionSource = (*Client)(nil)

// Client talks to the payment-data service, the source of truth for pending
// redirect actions. Every call carries a freshly minted service-account
// credential; credentials are never reused across calls.
type Client struct {
	baseURL    string
	audience   string
	issuer     core.CredentialIssuer
	account    *core.Principal
	httpClient *http.Client
}

func New(baseURL, audience string, issuer core.CredentialIssuer, account *core.Principal) *Client {
	return &Client{
		baseURL:    baseURL,
		audience:   audience,
		issuer:     issuer,
		account:    account,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type actionResponse struct {
	Action *core.RedirectAction `json:"action"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// PendingAction fetches the pending redirect action for a payment.
// Returns core.ErrNotFound when no action is pending.
func (c *Client) PendingAction(ctx context.Context, paymentID string) (*core.RedirectAction, error) {
	cred, err := c.issuer.Issue(c.account, c.audience, core.Scopes{core.ScopeRedirectsRead})
	if err != nil {
		return nil, fmt.Errorf("minting payment-data credential: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payments/%s/redirect", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(auth.AuthorizationHeader, "Bearer "+cred.Token)
	req.Header.Set(auth.ServiceTokenHeader, "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling payment-data: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		var body actionResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("decoding payment-data response: %w", err)
		}
		if body.Action == nil {
			return nil, fmt.Errorf("payment-data returned no action for '%s'", paymentID)
		}
		return body.Action, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: no pending redirect action for payment '%s'", core.ErrNotFound, paymentID)
	default:
		var body errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("payment-data returned status %d: %s", resp.StatusCode, body.Error)
	}
}
