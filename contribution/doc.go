// Package contribution produces one participant contribution from a batch
// handed out by the ceremony coordinator.
//
// An [Attempt] owns exactly one secret, drawn by a [SecretGenerator] when the
// attempt is created. [Attempt.Contribute] runs the whole computation:
//
//	attempt, err := contribution.NewAttempt(gen, validator, updater)
//	if err != nil {
//		return err
//	}
//	signed, err := attempt.Contribute(batch, id)
//
// Contribute validates the batch, applies the secret to every sub-ceremony,
// signs the participant's identity with the same secret and then zeroes it.
// An Attempt is designed to be used exactly once; a second call returns
// [ErrAttemptConsumed], so a secret can never be mixed into two batches.
//
// # Randomness
//
// The generator reads from an injected io.Reader. Production code passes
// nil (crypto/rand); tests can use [NewDeterministicReader] for repeatable
// secrets.
package contribution
