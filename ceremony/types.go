package ceremony

// PowersOfTau holds the hex-encoded compressed powers of one sub-ceremony.
// Index i of each sequence holds the i-th power of the accumulated secret.
type PowersOfTau struct {
	G1Powers []string `json:"G1Powers"`
	G2Powers []string `json:"G2Powers"`
}

// SubCeremony is one independently sized powers-of-tau instance.
//
// NumG1Powers and NumG2Powers are the declared lengths of the short (G1)
// and extended (G2) sequences; the extended powers are a prefix of the
// short ones, so NumG2Powers <= NumG1Powers.
type SubCeremony struct {
	NumG1Powers  int         `json:"numG1Powers"`
	NumG2Powers  int         `json:"numG2Powers"`
	PowersOfTau  PowersOfTau `json:"powersOfTau"`
	PotPubkey    string      `json:"potPubkey"`
	BLSSignature string      `json:"blsSignature,omitempty"`
}

// Batch is the ordered set of sub-ceremonies handed out for one turn.
// Slot order is defined by the ceremony and must be preserved.
type Batch struct {
	Contributions  []SubCeremony `json:"contributions"`
	ECDSASignature string        `json:"ecdsaSignature,omitempty"`
}

// Clone returns a deep copy of b.
func (b *Batch) Clone() *Batch {
	out := &Batch{
		Contributions:  make([]SubCeremony, len(b.Contributions)),
		ECDSASignature: b.ECDSASignature,
	}
	for i, c := range b.Contributions {
		c.PowersOfTau = PowersOfTau{
			G1Powers: append([]string(nil), c.PowersOfTau.G1Powers...),
			G2Powers: append([]string(nil), c.PowersOfTau.G2Powers...),
		}
		out.Contributions[i] = c
	}
	return out
}

// Witness is the audit trail kept per transcript by the coordinator.
type Witness struct {
	RunningProducts []string `json:"runningProducts"`
	PotPubkeys      []string `json:"potPubkeys"`
	BLSSignatures   []string `json:"blsSignatures"`
}

// Transcript is the coordinator's current state of one sub-ceremony.
type Transcript struct {
	NumG1Powers int         `json:"numG1Powers"`
	NumG2Powers int         `json:"numG2Powers"`
	PowersOfTau PowersOfTau `json:"powersOfTau"`
	Witness     Witness     `json:"witness"`
}

// BatchTranscript is the full, read-only ceremony transcript.
type BatchTranscript struct {
	Transcripts                []Transcript `json:"transcripts"`
	ParticipantIDs             []string     `json:"participantIds"`
	ParticipantECDSASignatures []string     `json:"participantEcdsaSignatures"`
}
