package sequencer

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrUnexpectedResponse is returned when a coordinator response matches none
// of the shapes documented for its endpoint.
var ErrUnexpectedResponse = errors.New("sequencer: unexpected response")

// Class tells the caller what to do about a coordinator error.
type Class int

const (
	// ClassFatal ends the participation.
	ClassFatal Class = iota
	// ClassRetry means the same request may be repeated after the poll delay.
	ClassRetry
)

func (c Class) String() string {
	if c == ClassRetry {
		return "retry"
	}
	return "fatal"
}

// Category groups error codes by the level they are reported at.
type Category string

const (
	CategoryLobby    Category = "lobby"
	CategorySession  Category = "session"
	CategoryTurn     Category = "turn"
	CategoryCeremony Category = "ceremony"
	CategoryUnknown  Category = "unknown"
)

// Code is the discriminant string the coordinator puts in an error body.
type Code string

const (
	CodeRateLimited                   Code = "TryContributeError::RateLimited"
	CodeAnotherContributionInProgress Code = "TryContributeError::AnotherContributionInProgress"
	CodeLobbyIsFull                   Code = "TryContributeError::LobbyIsFull"
	CodeUnknownSessionID              Code = "TryContributeError::UnknownSessionId"
	CodeUserAlreadyContributed        Code = "TryContributeError::UserAlreadyContributed"
	CodeInvalidSessionID              Code = "SessionError::InvalidSessionId"
	CodeNotUsersTurn                  Code = "ContributeError::NotUsersTurn"
	CodeInvalidContribution           Code = "ContributeError::InvalidContribution"
)

type codeInfo struct {
	category Category
	class    Class
}

// ceremonyCodes are reported by the coordinator when it rejects the content
// of a submitted batch.
var ceremonyCodes = []string{
	"UnexpectedNumContributions",
	"UnsupportedNumG1Powers",
	"UnsupportedNumG2Powers",
	"UnexpectedNumG1Powers",
	"UnexpectedNumG2Powers",
	"InconsistentNumG2Powers",
	"UnsupportedMoreG2Powers",
	"InvalidG1Power",
	"InvalidG2Power",
	"ParserError",
	"InvalidPubKey",
	"InvalidWitnessProduct",
	"InvalidWitnessPubKey",
	"PubKeyPairingFailed",
	"G1PairingFailed",
	"G2PairingFailed",
	"ZeroPubkey",
	"ZeroG1",
	"ZeroG2",
	"InvalidG1FirstValue",
	"InvalidG2FirstValue",
	"InvalidG1One",
	"InvalidG2One",
	"InvalidG2Pubkey",
	"DuplicateG1",
	"DuplicateG2",
	"ContributionNoEntropy",
	"WitnessLengthMismatch",
}

var codeTable = buildCodeTable()

func buildCodeTable() map[Code]codeInfo {
	t := map[Code]codeInfo{
		CodeRateLimited:                   {CategoryLobby, ClassRetry},
		CodeAnotherContributionInProgress: {CategoryLobby, ClassRetry},
		CodeLobbyIsFull:                   {CategoryLobby, ClassRetry},
		CodeUnknownSessionID:              {CategorySession, ClassFatal},
		CodeUserAlreadyContributed:        {CategorySession, ClassFatal},
		CodeInvalidSessionID:              {CategorySession, ClassFatal},
		CodeNotUsersTurn:                  {CategoryTurn, ClassFatal},
		CodeInvalidContribution:           {CategoryCeremony, ClassFatal},
	}
	for _, name := range ceremonyCodes {
		t[Code("CeremonyError::"+name)] = codeInfo{CategoryCeremony, ClassFatal}
	}
	return t
}

// Classify looks code up in the table of known coordinator codes.
// Codes that are not in the table are fatal.
func Classify(code Code) (Category, Class) {
	info, ok := codeTable[code]
	if !ok {
		return CategoryUnknown, ClassFatal
	}
	return info.category, info.class
}

// Error is a structured error reported by the coordinator.
type Error struct {
	Code    Code
	Message string
	// StatusCode is the HTTP status the error arrived with.
	StatusCode int
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("sequencer: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sequencer: %s: %s", e.Code, e.Message)
}

// Category returns the level the code belongs to.
func (e *Error) Category() Category {
	cat, _ := Classify(e.Code)
	return cat
}

// Retryable reports whether the coordinator asked the client to try again.
func (e *Error) Retryable() bool {
	_, class := Classify(e.Code)
	return class == ClassRetry
}

// TransportError wraps a failure to reach the coordinator or to read its
// response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sequencer: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran out of time.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}
