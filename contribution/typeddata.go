package contribution

import (
	"github.com/f3rmion/tau/ceremony"
)

// TypedDataField is one member of an EIP-712 struct type.
type TypedDataField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedDataDomain is the EIP-712 domain of the ceremony.
type TypedDataDomain struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	ChainID int    `json:"chainId"`
}

// PotPubkeyEntry is the per sub-ceremony record an account signs.
type PotPubkeyEntry struct {
	NumG1Powers int    `json:"numG1Powers"`
	NumG2Powers int    `json:"numG2Powers"`
	PotPubkey   string `json:"potPubkey"`
}

// PotPubkeys is the EIP-712 message.
type PotPubkeys struct {
	PotPubkeys []PotPubkeyEntry `json:"potPubkeys"`
}

// TypedData is an EIP-712 document as accepted by eth_signTypedData_v4.
type TypedData struct {
	Types       map[string][]TypedDataField `json:"types"`
	PrimaryType string                      `json:"primaryType"`
	Domain      TypedDataDomain             `json:"domain"`
	Message     PotPubkeys                  `json:"message"`
}

// BuildTypedData returns the EIP-712 document over the pot pubkeys of an
// updated batch. An account-based participant signs it with their wallet
// and the result is sent as the batch's ecdsaSignature.
func BuildTypedData(batch *ceremony.Batch) *TypedData {
	keys := make([]PotPubkeyEntry, 0, len(batch.Contributions))
	for _, c := range batch.Contributions {
		keys = append(keys, PotPubkeyEntry{
			NumG1Powers: c.NumG1Powers,
			NumG2Powers: c.NumG2Powers,
			PotPubkey:   c.PotPubkey,
		})
	}

	return &TypedData{
		Types: map[string][]TypedDataField{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"contributionPubkey": {
				{Name: "numG1Powers", Type: "uint256"},
				{Name: "numG2Powers", Type: "uint256"},
				{Name: "potPubkey", Type: "bytes"},
			},
			"PoTPubkeys": {
				{Name: "potPubkeys", Type: "contributionPubkey[]"},
			},
		},
		PrimaryType: "PoTPubkeys",
		Domain: TypedDataDomain{
			Name:    "Ethereum KZG Ceremony",
			Version: "1.0",
			ChainID: 1,
		},
		Message: PotPubkeys{PotPubkeys: keys},
	}
}
