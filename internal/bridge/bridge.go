package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jbattja/fugata-sub001/internal/core"
)

// State of a bridge run. A bridge handles exactly one navigation attempt;
// NAVIGATED and ERROR are terminal.
type State string

const (
	StateInit        State = "INIT"
	StateFetching    State = "FETCHING_BY_PAYMENT_ID"
	StateDecrypting  State = "DECRYPTING_SUPPLIED_ACTION"
	StateRedirecting State = "REDIRECTING"
	StateNavigated   State = "NAVIGATED"
	StateError       State = "ERROR"
)

// DefaultTimeout bounds the fetch-or-decrypt step so a hung downstream
// dependency cannot leave the bridge in a non-terminal state.
const DefaultTimeout = 10 * time.Second

// consumedTTL is how long an executed action stays blocked from re-execution.
// Longer than any plausible partner round trip.
const consumedTTL = 24 * time.Hour

// Navigator executes the browser-level redirect: an immediate navigation for
// GET actions, a submitted form for POST actions.
type Navigator interface {
	RedirectGET(url string) error
	SubmitForm(url string, data core.FormData) error
}

// Bridge resolves a pending redirect action (by payment id or from a supplied
// envelope) and performs the corresponding navigation exactly once. One
// Bridge instance serves one arrival; it is not reusable.
type Bridge struct {
	source   core.ActionSource
	codec    core.ActionCodec
	consumed core.ConsumedStore
	timeout  time.Duration

	mu    sync.Mutex
	state State
}

func New(source core.ActionSource, codec core.ActionCodec, consumed core.ConsumedStore, timeout time.Duration) *Bridge {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bridge{
		source:   source,
		codec:    codec,
		consumed: consumed,
		timeout:  timeout,
		state:    StateInit,
	}
}

func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ResolveByPaymentID is entry A: the arrival knows only a payment id and the
// pending action is fetched from payment data over an authenticated call.
func (b *Bridge) ResolveByPaymentID(ctx context.Context, paymentID string) (*core.RedirectAction, error) {
	if err := b.transition(StateInit, StateFetching); err != nil {
		return nil, err
	}
	if paymentID == "" {
		return nil, b.fail(fmt.Errorf("%w: payment id is required", core.ErrValidation))
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	action, err := b.source.PendingAction(ctx, paymentID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, b.fail(fmt.Errorf("fetching pending action for '%s': %w", paymentID, ctx.Err()))
		}
		return nil, b.fail(fmt.Errorf("fetching pending action for '%s': %w", paymentID, err))
	}
	if err := action.Validate(); err != nil {
		return nil, b.fail(err)
	}
	return action, nil
}

// ResolveEnvelope is entry B: the arrival carries an encrypted action, e.g. a
// partner posting back to the bridge.
func (b *Bridge) ResolveEnvelope(ctx context.Context, envelope string) (*core.RedirectAction, error) {
	if err := b.transition(StateInit, StateDecrypting); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := ctx.Err(); err != nil {
		return nil, b.fail(err)
	}

	action, err := b.codec.Decrypt(envelope)
	if err != nil {
		return nil, b.fail(err)
	}
	if err := action.Validate(); err != nil {
		return nil, b.fail(err)
	}
	return action, nil
}

// Execute performs the navigation for a resolved action. The action is
// marked consumed first so a replayed envelope or refetched payment id can
// never navigate twice, and the REDIRECTING guard refuses any second
// execution on this bridge regardless of duplicate triggers.
func (b *Bridge) Execute(ctx context.Context, action *core.RedirectAction, nav Navigator) error {
	b.mu.Lock()
	switch b.state {
	case StateFetching, StateDecrypting:
		b.state = StateRedirecting
	case StateRedirecting, StateNavigated:
		b.mu.Unlock()
		return fmt.Errorf("%w: navigation already performed", core.ErrValidation)
	default:
		from := b.state
		b.mu.Unlock()
		return fmt.Errorf("%w: cannot execute from state %s", core.ErrValidation, from)
	}
	b.mu.Unlock()

	if err := action.Validate(); err != nil {
		return b.fail(err)
	}

	ok, err := b.consumed.Consume(ctx, action.PaymentID, consumedTTL)
	if err != nil {
		return b.fail(fmt.Errorf("consuming action for '%s': %w", action.PaymentID, err))
	}
	if !ok {
		return b.fail(fmt.Errorf("%w: payment '%s'", core.ErrActionConsumed, action.PaymentID))
	}

	log.Ctx(ctx).Info().
		Str("payment_id", action.PaymentID).
		Str("method", string(action.Method)).
		Msg("bridge.navigate")

	switch action.Method {
	case core.RedirectMethodGet:
		err = nav.RedirectGET(action.URL)
	case core.RedirectMethodPost:
		err = nav.SubmitForm(action.URL, action.Data)
	default:
		err = fmt.Errorf("%w: unknown redirect method '%s'", core.ErrValidation, action.Method)
	}
	if err != nil {
		return b.fail(err)
	}

	b.mu.Lock()
	b.state = StateNavigated
	b.mu.Unlock()
	return nil
}

// transition moves the bridge from exactly one expected state to the next.
func (b *Bridge) transition(from, to State) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return fmt.Errorf("%w: cannot transition %s -> %s (current state %s)",
			core.ErrValidation, from, to, b.state)
	}
	b.state = to
	return nil
}

// fail moves the bridge to the terminal ERROR state and passes the cause
// through unchanged.
func (b *Bridge) fail(err error) error {
	b.mu.Lock()
	b.state = StateError
	b.mu.Unlock()
	return err
}
