package tenant

import (
	"fmt"
	"net/http"

	"github.com/jbattja/fugata-sub001/internal/core"
)

// Transport locations for the merchant context. The header pair is always
// set together; the query parameters are a fallback for browser navigations
// that cannot carry custom headers.
const (
	HeaderMerchantID   = "x-merchant-id"
	HeaderMerchantCode = "x-merchant-code"

	QueryMerchantID   = "merchantId"
	QueryMerchantCode = "merchantCode"
)

// Resolve extracts the merchant context for a request. Resolution order:
// headers, then query parameters, then none. A half-populated pair is an
// explicit error, never "no context".
func Resolve(r *http.Request) (*core.MerchantContext, error) {
	if ctx, ok, err := fromPair(r.Header.Get(HeaderMerchantID), r.Header.Get(HeaderMerchantCode), "header"); err != nil {
		return nil, err
	} else if ok {
		return ctx, nil
	}

	query := r.URL.Query()
	if ctx, ok, err := fromPair(query.Get(QueryMerchantID), query.Get(QueryMerchantCode), "query"); err != nil {
		return nil, err
	} else if ok {
		return ctx, nil
	}

	return nil, nil
}

func fromPair(id, code, source string) (*core.MerchantContext, bool, error) {
	if id == "" && code == "" {
		return nil, false, nil
	}
	ctx := core.MerchantContext{ID: id, Code: code}
	if err := ctx.Validate(); err != nil {
		return nil, false, fmt.Errorf("merchant context from %s: %w", source, err)
	}
	return &ctx, true, nil
}

// CrossCheck reconciles the transport-resolved merchant context with the one
// embedded in the caller's credential. A credential-embedded context always
// wins; a transport value that contradicts it is rejected so a caller cannot
// widen its own access by asserting a different tenant via headers.
func CrossCheck(principal *core.Principal, resolved *core.MerchantContext) (*core.MerchantContext, error) {
	var embedded *core.MerchantContext
	if principal != nil {
		embedded = principal.Merchant
	}

	switch {
	case embedded == nil:
		return resolved, nil
	case resolved == nil:
		return embedded, nil
	case embedded.Equal(*resolved):
		return embedded, nil
	default:
		return nil, fmt.Errorf("%w: credential bound to %s/%s, transport asserted %s/%s",
			core.ErrMerchantMismatch, embedded.ID, embedded.Code, resolved.ID, resolved.Code)
	}
}
