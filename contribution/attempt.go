package contribution

import (
	"errors"
	"fmt"
	"sync"

	"github.com/f3rmion/tau/bls"
	"github.com/f3rmion/tau/ceremony"
	"github.com/f3rmion/tau/group"
	"github.com/f3rmion/tau/identity"
)

var (
	// ErrAttemptConsumed is returned when an attempt is used a second time.
	ErrAttemptConsumed = errors.New("contribution: attempt already consumed: secret reuse prevented")
	// ErrInvalidBatch wraps every validation failure of a batch.
	ErrInvalidBatch = errors.New("contribution: batch failed validation")
)

// Attempt is a single contribution with its own secret.
// Each attempt can only be used once; attempting to contribute twice
// returns an error.
//
// Create attempts using [NewAttempt].
type Attempt struct {
	mu        sync.Mutex
	field     group.Group
	secret    group.Scalar
	validator *ceremony.Validator
	updater   *ceremony.Updater
	consumed  bool
}

// NewAttempt draws a fresh secret from gen and binds it to a new attempt.
func NewAttempt(gen *SecretGenerator, v *ceremony.Validator, u *ceremony.Updater) (*Attempt, error) {
	secret, err := gen.Generate()
	if err != nil {
		return nil, fmt.Errorf("contribution: failed to generate secret: %w", err)
	}
	return &Attempt{
		field:     gen.field,
		secret:    secret,
		validator: v,
		updater:   u,
	}, nil
}

// Contribute validates batch, mixes the attempt's secret into it and binds
// the result to id with a signature made with the same secret.
//
// This method consumes the attempt. After Contribute returns (successfully
// or not), the secret has been zeroed. The input batch is not modified.
func (a *Attempt) Contribute(batch *ceremony.Batch, id identity.Identity) (*ceremony.Batch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.consumed {
		return nil, ErrAttemptConsumed
	}

	// Mark as consumed immediately, before any operations that might fail
	a.consumed = true
	defer a.secret.Zeroize()

	if err := a.validator.Check(batch); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
	}

	out, err := a.updater.Update(batch, a.secret)
	if err != nil {
		return nil, fmt.Errorf("contribution: update failed: %w", err)
	}

	sig, err := a.sign(id)
	if err != nil {
		return nil, err
	}
	enc := bls.PointToHex(sig)
	for i := range out.Contributions {
		out.Contributions[i].BLSSignature = enc
	}
	return out, nil
}

// sign is the last use of the secret before it is erased.
func (a *Attempt) sign(id identity.Identity) (group.Point, error) {
	// The signing key is derived from the canonical encoding of the secret.
	keyBytes := a.secret.Bytes()
	defer clear(keyBytes)

	sk, err := a.field.NewScalar().SetBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("contribution: derive signing key: %w", err)
	}
	defer sk.Zeroize()

	sig, err := bls.Sign(sk, id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("contribution: sign identity: %w", err)
	}
	return sig, nil
}

// Discard zeroes the secret without contributing and consumes the attempt.
func (a *Attempt) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.consumed = true
	a.secret.Zeroize()
}

// IsConsumed returns true if this attempt has already been used.
func (a *Attempt) IsConsumed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.consumed
}

// VerifyIdentity reports whether sub's signature binds id to sub's PotPubkey.
func VerifyIdentity(sub *ceremony.SubCeremony, id identity.Identity) (bool, error) {
	pk, err := bls.PointFromHex(&bls.G2{}, sub.PotPubkey)
	if err != nil {
		return false, fmt.Errorf("contribution: decode potPubkey: %w", err)
	}
	sig, err := bls.PointFromHex(&bls.G1{}, sub.BLSSignature)
	if err != nil {
		return false, fmt.Errorf("contribution: decode blsSignature: %w", err)
	}
	return bls.Verify(pk.(*bls.G2Point), id.Bytes(), sig.(*bls.G1Point))
}
