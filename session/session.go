package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/f3rmion/tau/bls"
	"github.com/f3rmion/tau/ceremony"
	"github.com/f3rmion/tau/contribution"
	"github.com/f3rmion/tau/group"
	"github.com/f3rmion/tau/identity"
	"github.com/f3rmion/tau/sequencer"
)

// Defaults applied by New to zero Config fields.
const (
	DefaultPollInterval   = 4 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultAbortTimeout   = 10 * time.Second
)

// Poll outcomes reported to the Recorder.
const (
	PollWaiting  = "waiting"
	PollAssigned = "assigned"
	PollRetry    = "retry"
	PollError    = "error"
)

// Coordinator is the part of the coordinator API a session drives.
// *sequencer.Client implements it.
type Coordinator interface {
	RequestAuthLink(ctx context.Context) (*sequencer.AuthLinks, error)
	TryContribute(ctx context.Context, token string) (*sequencer.LobbyResponse, error)
	Contribute(ctx context.Context, token string, batch *ceremony.Batch) (*sequencer.Receipt, error)
	AbortContribution(ctx context.Context, token string) error
}

// Credentials are obtained by signing in with one of the providers.
type Credentials struct {
	SessionToken string
	// Identity is the raw credential the token was issued for: an 0x address
	// or an @handle.
	Identity string
}

// Authenticator walks the participant through sign-in using the links
// served by the coordinator.
type Authenticator interface {
	Authenticate(ctx context.Context, links *sequencer.AuthLinks) (Credentials, error)
}

// BatchSigner signs the EIP-712 document over a batch's pot pubkeys with the
// participant's account key. It is only used for address identities.
type BatchSigner interface {
	SignTypedData(ctx context.Context, td *contribution.TypedData) (string, error)
}

// Recorder receives session metrics. *metrics.Metrics implements it.
type Recorder interface {
	ObservePoll(outcome string)
	ObserveTransition(state string)
	ObserveContribution(d time.Duration)
}

// Config tunes a Session. Zero values select defaults.
type Config struct {
	PollInterval   time.Duration
	RequestTimeout time.Duration
	AbortTimeout   time.Duration

	// Short and Extended default to BLS12-381 G1 and G2.
	Short    group.Group
	Extended group.Group
	// Workers bounds the sub-ceremonies updated in parallel; 0 uses every CPU.
	Workers int
	// Rand is the entropy source of contribution secrets; nil uses crypto/rand.
	Rand io.Reader

	// Resolver maps @handles to account ids. Required for handle identities.
	Resolver identity.Resolver
	// Signer, if set, adds an ECDSA signature to batches of address identities.
	Signer BatchSigner

	Logger  *zap.Logger
	Metrics Recorder
}

// Session drives one participation in the ceremony, from sign-in to the
// coordinator's receipt. A Session runs once; create a new one to try again.
type Session struct {
	coord     Coordinator
	auth      Authenticator
	cfg       Config
	gen       *contribution.SecretGenerator
	validator *ceremony.Validator
	updater   *ceremony.Updater
	logger    *zap.Logger
	metrics   Recorder

	mu       sync.Mutex
	state    State
	history  []State
	started  bool
	aborted  bool
	cancel   context.CancelFunc
	token    string
	identity identity.Identity
	kind     identity.Kind
}

// New creates a session against coord, signing in through auth.
func New(coord Coordinator, auth Authenticator, cfg Config) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.AbortTimeout <= 0 {
		cfg.AbortTimeout = DefaultAbortTimeout
	}
	if cfg.Short == nil {
		cfg.Short = &bls.G1{}
	}
	if cfg.Extended == nil {
		cfg.Extended = &bls.G2{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}

	opts := []ceremony.Option{ceremony.WithWorkers(cfg.Workers), ceremony.WithLogger(cfg.Logger)}
	return &Session{
		coord:     coord,
		auth:      auth,
		cfg:       cfg,
		gen:       contribution.NewSecretGenerator(cfg.Short, cfg.Rand),
		validator: ceremony.NewValidator(cfg.Short, cfg.Extended, opts...),
		updater:   ceremony.NewUpdater(cfg.Short, cfg.Extended, opts...),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		state:     Unauthenticated,
		history:   []State{Unauthenticated},
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns every state visited so far, in order.
func (s *Session) History() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.history...)
}

// Identity returns the canonical identity once signed in.
func (s *Session) Identity() identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Abort asks a running session to stop. It has the same effect as cancelling
// the context passed to Run. Abort takes effect between polls, or once the
// current computation has finished; a submission in flight is not
// interrupted.
func (s *Session) Abort() {
	s.mu.Lock()
	s.aborted = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Run signs in, waits for a turn, contributes and returns the coordinator's
// receipt.
//
// On failure Run returns a *Failure; when aborted it returns an *AbortError.
// Either way the session ends in a terminal state. Errors during sign-in
// (an unreachable auth link, an empty token, a malformed or unresolvable
// identity) end in Failed and come back as a *Failure whose State is
// Unauthenticated; only cancellation produces an *AbortError there, and no
// turn is released since none can be held yet.
func (s *Session) Run(ctx context.Context) (*sequencer.Receipt, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, ErrSessionUsed
	}
	s.started = true
	s.cancel = cancel
	if s.aborted {
		cancel()
	}
	s.mu.Unlock()

	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}

	batch, err := s.poll(ctx)
	if err != nil {
		return nil, err
	}

	s.transition(Computing)
	signed, err := s.compute(ctx, batch)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, s.abort(ctx, Computing)
	}

	s.transition(Submitting)
	return s.submit(ctx, signed)
}

func (s *Session) authenticate(ctx context.Context) error {
	rctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	links, err := s.coord.RequestAuthLink(rctx)
	cancel()
	if ctx.Err() != nil {
		return s.abort(ctx, Unauthenticated)
	}
	if err != nil {
		return s.fail(Unauthenticated, fmt.Errorf("request auth link: %w", err))
	}

	creds, err := s.auth.Authenticate(ctx, links)
	if ctx.Err() != nil {
		return s.abort(ctx, Unauthenticated)
	}
	if err != nil {
		return s.fail(Unauthenticated, err)
	}
	if creds.SessionToken == "" {
		return s.fail(Unauthenticated, ErrNoSessionToken)
	}

	cred, err := identity.Parse(creds.Identity)
	if err != nil {
		return s.fail(Unauthenticated, err)
	}
	rctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
	id, err := identity.Canonicalize(rctx, creds.Identity, s.cfg.Resolver)
	cancel()
	if ctx.Err() != nil {
		return s.abort(ctx, Unauthenticated)
	}
	if err != nil {
		return s.fail(Unauthenticated, err)
	}

	s.mu.Lock()
	s.token = creds.SessionToken
	s.identity = id
	s.kind = cred.Kind
	s.mu.Unlock()

	s.logger.Info("signed in", zap.Stringer("identity", id), zap.Stringer("kind", cred.Kind))
	s.transition(Polling)
	return nil
}

// poll asks for a turn until a batch is assigned. The first request goes out
// at once; every later one waits a full poll interval after the previous
// response, however long that response took.
func (s *Session) poll(ctx context.Context) (*ceremony.Batch, error) {
	for first := true; ; first = false {
		if !first && !sleep(ctx, s.cfg.PollInterval) {
			return nil, s.abort(ctx, Polling)
		}

		rctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
		resp, err := s.coord.TryContribute(rctx, s.token)
		cancel()
		if ctx.Err() != nil {
			return nil, s.abort(ctx, Polling)
		}

		if err == nil {
			if resp.Assigned() {
				s.metrics.ObservePoll(PollAssigned)
				s.logger.Info("turn assigned", zap.Int("sub_ceremonies", len(resp.Batch.Contributions)))
				return resp.Batch, nil
			}
			s.metrics.ObservePoll(PollWaiting)
			s.logger.Debug("waiting in lobby", zap.String("message", resp.InProgress))
			continue
		}

		var serr *sequencer.Error
		if errors.As(err, &serr) && serr.Retryable() {
			s.metrics.ObservePoll(PollRetry)
			s.logger.Debug("lobby asked to retry", zap.String("code", string(serr.Code)))
			continue
		}
		var terr *sequencer.TransportError
		if errors.As(err, &terr) {
			s.metrics.ObservePoll(PollError)
			s.logger.Warn("lobby unreachable, retrying", zap.Error(err), zap.Bool("timeout", terr.Timeout()))
			continue
		}

		s.metrics.ObservePoll(PollError)
		return nil, s.fail(Polling, err)
	}
}

// compute runs one contribution attempt on batch. It does not watch ctx:
// a batch is either fully transformed or dropped.
func (s *Session) compute(ctx context.Context, batch *ceremony.Batch) (*ceremony.Batch, error) {
	start := time.Now()

	attempt, err := contribution.NewAttempt(s.gen, s.validator, s.updater)
	if err != nil {
		return nil, s.failHoldingTurn(ctx, err)
	}
	out, err := attempt.Contribute(batch, s.identity)
	if err != nil {
		return nil, s.failHoldingTurn(ctx, err)
	}

	if s.cfg.Signer != nil && s.kind == identity.KindAddress {
		sig, err := s.cfg.Signer.SignTypedData(context.WithoutCancel(ctx), contribution.BuildTypedData(out))
		if err != nil {
			return nil, s.failHoldingTurn(ctx, fmt.Errorf("sign typed data: %w", err))
		}
		out.ECDSASignature = sig
	}

	elapsed := time.Since(start)
	s.metrics.ObserveContribution(elapsed)
	s.logger.Info("contribution computed", zap.Duration("elapsed", elapsed))
	return out, nil
}

// submit sends the batch once. Nothing is retried: a rejected or lost
// submission ends the session.
func (s *Session) submit(ctx context.Context, batch *ceremony.Batch) (*sequencer.Receipt, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RequestTimeout)
	defer cancel()

	receipt, err := s.coord.Contribute(rctx, s.token, batch)
	if err != nil {
		return nil, s.fail(Submitting, err)
	}
	s.transition(Done)
	return receipt, nil
}

// abort moves to Aborted. A turn may be held from Polling on, so the
// coordinator is told to release it.
func (s *Session) abort(ctx context.Context, from State) error {
	aerr := &AbortError{State: from}
	if from != Unauthenticated {
		aerr.Notify = s.release(ctx)
	}
	s.transition(Aborted)
	return aerr
}

// failHoldingTurn fails a session that holds the turn, releasing it first.
func (s *Session) failHoldingTurn(ctx context.Context, err error) error {
	_ = s.release(ctx)
	return s.fail(Computing, err)
}

// release notifies the coordinator with a context of its own, since ctx may
// already be cancelled.
func (s *Session) release(ctx context.Context) error {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AbortTimeout)
	defer cancel()

	if err := s.coord.AbortContribution(nctx, s.token); err != nil {
		s.logger.Warn("failed to release turn", zap.Error(err))
		return err
	}
	s.logger.Info("turn released")
	return nil
}

func (s *Session) fail(from State, err error) error {
	s.logger.Error("session failed", zap.Stringer("state", from), zap.Error(err))
	s.transition(Failed)
	return &Failure{State: from, Err: err}
}

func (s *Session) transition(to State) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.history = append(s.history, to)
	s.mu.Unlock()

	s.logger.Debug("state transition", zap.Stringer("from", from), zap.Stringer("to", to))
	s.metrics.ObserveTransition(to.String())
}

// sleep waits for d and reports false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

type nopRecorder struct{}

func (nopRecorder) ObservePoll(string)                {}
func (nopRecorder) ObserveTransition(string)          {}
func (nopRecorder) ObserveContribution(time.Duration) {}
