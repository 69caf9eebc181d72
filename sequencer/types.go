package sequencer

import "github.com/f3rmion/tau/ceremony"

// Status is the public lobby summary.
type Status struct {
	LobbySize        int    `json:"lobby_size"`
	NumContributions int    `json:"num_contributions"`
	SequencerAddress string `json:"sequencer_address"`
}

// AuthLinks are the URLs a participant opens to sign in with either provider.
type AuthLinks struct {
	EthAuthURL    string `json:"eth_auth_url"`
	GithubAuthURL string `json:"github_auth_url"`
}

// Receipt is returned by the coordinator once a contribution is accepted.
type Receipt struct {
	Receipt   string `json:"receipt"`
	Signature string `json:"signature"`
}

// errorBody is the wire shape of a structured coordinator error.
type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// LobbyResponse is the outcome of a try_contribute call: either the
// participant is still waiting in the lobby, or a batch was assigned.
type LobbyResponse struct {
	// InProgress is the coordinator's message while someone else holds the turn.
	InProgress string
	// Batch is set when the turn has been granted.
	Batch *ceremony.Batch
}

// Assigned reports whether the response carries a batch.
func (r *LobbyResponse) Assigned() bool {
	return r.Batch != nil
}
