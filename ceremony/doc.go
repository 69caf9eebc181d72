// Package ceremony implements the data model and the two batch transforms of
// a powers-of-tau participant: subgroup validation of an incoming batch and
// the powers update that mixes a participant's secret into it.
//
// A [Batch] holds one [SubCeremony] per ceremony slot. Each sub-ceremony
// carries a sequence of short-group powers and a (shorter) sequence of
// extended-group powers, where index i encodes the i-th power of the
// accumulated secret tau:
//
//	G1Powers = [g1, tau*g1, tau^2*g1, ...]
//	G2Powers = [g2, tau*g2, ...]
//
// [Updater.Update] with secret x turns every tau^i into (tau*x)^i and sets
// the sub-ceremony's PotPubkey to x*g2. [Validator.Check] must accept the
// batch first.
package ceremony
