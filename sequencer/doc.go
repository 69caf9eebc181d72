// Package sequencer is a client for the ceremony coordinator's HTTP API.
//
// The coordinator owns the lobby and decides whose turn it is. A participant
// authenticates out of band, polls [Client.TryContribute] until a batch is
// assigned, and submits the updated batch with [Client.Contribute].
//
// Errors reported by the coordinator are returned as [*Error]. Their code is
// looked up in a fixed table by [Classify]; only lobby codes such as
// rate limiting are retryable, and any code not in the table is fatal.
// Failures to reach the coordinator are returned as [*TransportError].
package sequencer
