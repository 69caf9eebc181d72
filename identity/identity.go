package identity

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	addressPrefix = "0x"
	handlePrefix  = "@"

	addressTag = "eth"
	handleTag  = "git"
)

var (
	// ErrMalformedIdentity is returned when a raw credential does not have
	// the expected shape.
	ErrMalformedIdentity = errors.New("identity: malformed identity")
	// ErrIdentityLookupFailed is returned when the identity provider cannot
	// map a handle to its numeric account id.
	ErrIdentityLookupFailed = errors.New("identity: lookup failed")
)

// Identity is the canonical string a contribution signature is bound to,
// either "eth|<address>" or "git|<id>|<@handle lowercased>".
type Identity string

// String returns the canonical form.
func (id Identity) String() string {
	return string(id)
}

// Bytes returns the UTF-8 bytes that get signed.
func (id Identity) Bytes() []byte {
	return []byte(id)
}

// Kind distinguishes the two credential variants.
type Kind int

const (
	// KindAddress is an 0x-prefixed hex account address.
	KindAddress Kind = iota
	// KindHandle is an @-prefixed account handle.
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "address"
	case KindHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Credential is a raw, user-supplied credential whose shape has been checked.
type Credential struct {
	Kind  Kind
	Value string
}

// Resolver maps an account handle (without its @ marker) to the numeric
// account id assigned by the identity provider.
type Resolver interface {
	ResolveHandle(ctx context.Context, handle string) (uint64, error)
}

// Parse checks the shape of a raw credential and classifies it.
func Parse(raw string) (Credential, error) {
	switch {
	case strings.HasPrefix(raw, addressPrefix):
		if err := checkAddress(raw); err != nil {
			return Credential{}, err
		}
		return Credential{Kind: KindAddress, Value: raw}, nil
	case strings.HasPrefix(raw, handlePrefix):
		if err := checkHandle(raw); err != nil {
			return Credential{}, err
		}
		return Credential{Kind: KindHandle, Value: raw}, nil
	default:
		return Credential{}, fmt.Errorf("%w: %q is neither an 0x address nor an @handle", ErrMalformedIdentity, raw)
	}
}

// Canonicalize turns a raw credential into its canonical identity. Handles
// are resolved through r; addresses need no lookup and r may be nil.
func Canonicalize(ctx context.Context, raw string, r Resolver) (Identity, error) {
	cred, err := Parse(raw)
	if err != nil {
		return "", err
	}
	if cred.Kind == KindAddress {
		return FromAddress(cred.Value)
	}
	return FromHandle(ctx, cred.Value, r)
}

// FromAddress returns "eth|" + address. The address must carry the 0x
// prefix followed by valid hex; its case is preserved.
func FromAddress(address string) (Identity, error) {
	if err := checkAddress(address); err != nil {
		return "", err
	}
	return Identity(addressTag + "|" + address), nil
}

// FromHandle resolves handle, which must start with @, and returns
// "git|" + id + "|" + lowercased handle.
func FromHandle(ctx context.Context, handle string, r Resolver) (Identity, error) {
	if err := checkHandle(handle); err != nil {
		return "", err
	}
	if r == nil {
		return "", fmt.Errorf("%w: no resolver configured", ErrIdentityLookupFailed)
	}

	id, err := r.ResolveHandle(ctx, strings.TrimPrefix(handle, handlePrefix))
	if err != nil {
		if errors.Is(err, ErrIdentityLookupFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrIdentityLookupFailed, err)
	}
	return Identity(fmt.Sprintf("%s|%d|%s", handleTag, id, strings.ToLower(handle))), nil
}

func checkAddress(address string) error {
	rest, ok := strings.CutPrefix(address, addressPrefix)
	if !ok {
		return fmt.Errorf("%w: addresses must start with %q", ErrMalformedIdentity, addressPrefix)
	}
	if rest == "" {
		return fmt.Errorf("%w: empty address", ErrMalformedIdentity)
	}
	if _, err := hex.DecodeString(rest); err != nil {
		return fmt.Errorf("%w: address is not valid hex: %v", ErrMalformedIdentity, err)
	}
	return nil
}

func checkHandle(handle string) error {
	rest, ok := strings.CutPrefix(handle, handlePrefix)
	if !ok {
		return fmt.Errorf("%w: handles must start with %q", ErrMalformedIdentity, handlePrefix)
	}
	if rest == "" || strings.ContainsAny(rest, "/?#| \t") {
		return fmt.Errorf("%w: invalid handle %q", ErrMalformedIdentity, handle)
	}
	return nil
}
