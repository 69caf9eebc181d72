package contribution

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/chacha20"

	"github.com/f3rmion/tau/group"
)

// maxDraws bounds resampling after a zero draw, which has probability ~2^-255
// per draw from a working entropy source.
const maxDraws = 8

// ErrNoEntropy is returned when the random source keeps producing zero.
var ErrNoEntropy = errors.New("contribution: random source produced no entropy")

// SecretGenerator draws the secret scalar of a contribution attempt.
type SecretGenerator struct {
	field group.Group
	rng   io.Reader
}

// NewSecretGenerator returns a generator sampling scalars of field from rng.
// A nil rng selects crypto/rand.Reader.
func NewSecretGenerator(field group.Group, rng io.Reader) *SecretGenerator {
	if rng == nil {
		rng = rand.Reader
	}
	return &SecretGenerator{field: field, rng: rng}
}

// Generate returns a fresh, uniformly random, non-zero scalar.
//
// An error means the entropy source failed; the attempt cannot proceed.
func (g *SecretGenerator) Generate() (group.Scalar, error) {
	for i := 0; i < maxDraws; i++ {
		s, err := g.field.RandomScalar(g.rng)
		if err != nil {
			return nil, err
		}
		if !s.IsZero() {
			return s, nil
		}
	}
	return nil, ErrNoEntropy
}

// NewDeterministicReader returns an endless ChaCha20 keystream keyed by
// SHA-256(seed). It is meant for reproducible tests only.
func NewDeterministicReader(seed []byte) io.Reader {
	key := sha256.Sum256(seed)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// Key and nonce sizes are constants.
		panic(err)
	}
	return &keystreamReader{cipher: c}
}

type keystreamReader struct {
	cipher *chacha20.Cipher
}

func (r *keystreamReader) Read(p []byte) (int, error) {
	clear(p)
	r.cipher.XORKeyStream(p, p)
	return len(p), nil
}
