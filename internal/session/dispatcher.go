package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/diogo/iqrachat/internal/api"
	apierrors "github.com/diogo/iqrachat/internal/errors"
	"github.com/diogo/iqrachat/internal/models"
)

// Outcome is the terminal state of one submission
type Outcome int

const (
	OutcomeFulfilled Outcome = iota
	OutcomeFailed
	// OutcomeDiscarded means the reply arrived after the session was reset
	OutcomeDiscarded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFulfilled:
		return "fulfilled"
	case OutcomeFailed:
		return "failed"
	default:
		return "discarded"
	}
}

// Request is a submission that has entered the pending state
type Request struct {
	Text       string
	Attachment *models.Attachment
	// Token is the session identity captured when the request started
	Token string
}

// Dispatcher mediates between a Session and the remote query service.
// Each submission is exactly one request attempt; there are no retries.
type Dispatcher struct {
	session *Session
	querier api.Querier
	logger  zerolog.Logger
}

// DispatcherOption configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the diagnostics logger
func WithDispatcherLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher binds a session to a querier
func NewDispatcher(s *Session, q api.Querier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		session: s,
		querier: q,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Session returns the bound session
func (d *Dispatcher) Session() *Session {
	return d.session
}

// Begin validates the input and moves the session into the pending state:
// the user turn is appended optimistically, the input is cleared, busy is set
// and the last error is cleared. Empty input fails locally with EmptyInput;
// a submission while busy is rejected with ErrBusy and changes nothing.
func (d *Dispatcher) Begin(input string) (*Request, error) {
	text := strings.TrimSpace(input)

	s := d.session
	s.mu.Lock()

	if s.busy {
		s.mu.Unlock()
		return nil, apierrors.ErrBusy
	}

	if text == "" {
		failure := newFailure(apierrors.KindEmptyInput, apierrors.ErrEmptyInput)
		s.lastErr = failure
		s.mu.Unlock()
		return nil, failure
	}

	s.store.Append(models.UserTurn(text))
	s.busy = true
	s.lastErr = nil
	req := &Request{
		Text:       text,
		Attachment: s.attachment,
		Token:      s.token,
	}
	clearInput := s.onClearInput
	s.mu.Unlock()

	if clearInput != nil {
		clearInput()
	}

	return req, nil
}

// Execute performs the remote call for a pending request. It does not touch
// session state and may run off the event loop.
func (d *Dispatcher) Execute(ctx context.Context, req *Request) (string, error) {
	return d.querier.Query(ctx, api.QueryRequest{Text: req.Text, Attachment: req.Attachment})
}

// Complete applies the result of a request. A result whose token no longer
// matches the session only releases busy; nothing is appended and the error
// and attachment of the new session are left alone.
func (d *Dispatcher) Complete(req *Request, reply string, err error) Outcome {
	s := d.session
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Token != s.token {
		s.busy = false
		d.logger.Debug().
			Err(err).
			Str("token", req.Token).
			Msg("discarding reply for a reset session")
		return OutcomeDiscarded
	}

	s.busy = false
	s.attachment = nil

	if err != nil {
		kind := apierrors.Classify(err)
		s.lastErr = newFailure(kind, err)
		d.logger.Error().
			Err(err).
			Str("kind", kind.String()).
			Int("status", apierrors.GetHTTPStatus(err)).
			Str("body", apierrors.GetResponseBody(err)).
			Msg("API Error")
		return OutcomeFailed
	}

	s.store.Append(models.AssistantTurn(reply, !req.Attachment.IsZero()))
	s.lastErr = nil
	return OutcomeFulfilled
}

// Submit runs a whole submission synchronously. The returned error is the
// surfaced Failure, ErrBusy, or ErrDiscarded when the session was reset
// before the reply arrived; it is nil only when the reply was appended.
func (d *Dispatcher) Submit(ctx context.Context, input string) (Outcome, error) {
	req, err := d.Begin(input)
	if err != nil {
		return OutcomeFailed, err
	}

	reply, err := d.Execute(ctx, req)
	outcome := d.Complete(req, reply, err)
	switch outcome {
	case OutcomeDiscarded:
		return outcome, apierrors.ErrDiscarded
	case OutcomeFailed:
		if failure := d.session.LastError(); failure != nil {
			return outcome, failure
		}
	}
	return outcome, nil
}
