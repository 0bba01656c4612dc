package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apierrors "github.com/diogo/iqrachat/internal/errors"
	"github.com/diogo/iqrachat/internal/models"
)

// Failure is the single user-visible error published for a failed attempt.
// Cause is kept for diagnostics only.
type Failure struct {
	Kind    apierrors.Kind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func newFailure(kind apierrors.Kind, cause error) *Failure {
	return &Failure{Kind: kind, Message: apierrors.UserMessage(kind), Cause: cause}
}

// Snapshot is a consistent view of the session at one instant
type Snapshot struct {
	Turns      []models.Turn
	Busy       bool
	LastError  *Failure
	Attachment *models.Attachment
	Token      string
}

// Session holds the state of one conversation lifetime
type Session struct {
	mu         sync.Mutex
	store      *Store
	busy       bool
	lastErr    *Failure
	attachment *models.Attachment
	token      string

	onClearInput func()
	logger       zerolog.Logger
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the diagnostics logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithInputClearer registers the hook that empties the input field
func WithInputClearer(fn func()) Option {
	return func(s *Session) {
		s.onClearInput = fn
	}
}

// New creates a session with an empty store
func New(opts ...Option) *Session {
	s := &Session{
		store:  NewStore(),
		token:  uuid.NewString(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reset starts a new session: the store, attachment, error and input are
// cleared together and the token rotates so stale replies are discarded.
// In-flight requests are not cancelled, so busy stays set until the
// outstanding reply settles.
func (s *Session) Reset() {
	s.mu.Lock()
	s.store.Clear()
	s.attachment = nil
	s.lastErr = nil
	old := s.token
	s.token = uuid.NewString()
	clearInput := s.onClearInput
	s.mu.Unlock()

	if clearInput != nil {
		clearInput()
	}
	s.logger.Debug().Str("previous", old).Msg("session reset")
}

// AppendTurn appends an externally synthesized turn; see Store.Append
func (s *Session) AppendTurn(turn models.Turn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.store.Append(turn)
	if !ok {
		s.logger.Debug().Msg("welcome turn rejected: store not empty or already welcomed")
	}
	return ok
}

// EnsureWelcome shows the greeting once per session when nothing has been said yet
func (s *Session) EnsureWelcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.EnsureWelcome()
}

// Attach holds a validated file until the next submission
func (s *Session) Attach(att *models.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = att
	s.lastErr = nil
}

// Detach drops the pending attachment
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
}

// Attachment returns the pending attachment, or nil
func (s *Session) Attachment() *models.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachment
}

// ClearError empties the last-error slot (e.g. when the user edits the input)
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Turns returns the ordered turns
func (s *Session) Turns() []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Turns()
}

// Len returns the number of turns
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Len()
}

// Busy reports whether a request is outstanding
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// LastError returns the surfaced failure, or nil
func (s *Session) LastError() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Token identifies the current session lifetime
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns every observable field in one read
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Turns:      s.store.Turns(),
		Busy:       s.busy,
		LastError:  s.lastErr,
		Attachment: s.attachment,
		Token:      s.token,
	}
}
