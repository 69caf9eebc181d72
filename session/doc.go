// Package session drives one participation in a powers-of-tau ceremony.
//
// A [Session] is a state machine over the coordinator API:
//
//	Unauthenticated -> Polling -> Computing -> Submitting -> Done
//
// with Aborted and Failed as the other terminal states. Typical use:
//
//	client, err := sequencer.New(sequencer.DefaultURL)
//	if err != nil {
//		return err
//	}
//
//	sess := session.New(client, auth, session.Config{
//		Resolver: &identity.GitHubResolver{},
//		Logger:   logger,
//	})
//
//	receipt, err := sess.Run(ctx)
//
// # Polling
//
// The lobby is polled at a fixed interval, never with backoff; the
// coordinator decides admission. Lobby codes such as rate limiting and
// transport errors keep the session in Polling. Any other coordinator code,
// including codes this package does not know, fails the session.
//
// # Computing
//
// An assigned batch is handed to a single-use [contribution.Attempt], which
// validates every point, mixes in a fresh secret, signs the identity and
// erases the secret. A batch that fails validation is never repaired.
//
// # Aborting
//
// Cancelling the context passed to Run, or calling [Session.Abort], stops
// the session between polls or after the computation finishes. A session
// that may hold a turn tells the coordinator to release it. If that
// notification fails the session is still Aborted and the error is reported
// in the returned [*AbortError].
//
// The submission itself is sent exactly once and is not interrupted.
package session
