package contribution_test

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/f3rmion/tau/bls"
	"github.com/f3rmion/tau/ceremony"
	"github.com/f3rmion/tau/contribution"
	"github.com/f3rmion/tau/identity"
	"github.com/f3rmion/tau/internal/curvetest"
)

const testIdentity = identity.Identity("eth|0x73F8A075b9a1e3ddD169CfdBdFA513c40B8bd796")

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy source unavailable")
}

func newAttempt(t *testing.T, seed string) *contribution.Attempt {
	t.Helper()
	log := zaptest.NewLogger(t)
	gen := contribution.NewSecretGenerator(&bls.G1{}, contribution.NewDeterministicReader([]byte(seed)))
	a, err := contribution.NewAttempt(gen,
		ceremony.NewValidator(&bls.G1{}, &bls.G2{}, ceremony.WithLogger(log)),
		ceremony.NewUpdater(&bls.G1{}, &bls.G2{}, ceremony.WithLogger(log)),
	)
	require.NoError(t, err)
	return a
}

func TestSecretGenerator(t *testing.T) {
	t.Run("Reproducible", func(t *testing.T) {
		a, err := contribution.NewSecretGenerator(&bls.G1{}, contribution.NewDeterministicReader([]byte("seed"))).Generate()
		require.NoError(t, err)
		b, err := contribution.NewSecretGenerator(&bls.G1{}, contribution.NewDeterministicReader([]byte("seed"))).Generate()
		require.NoError(t, err)
		assert.True(t, a.Equal(b))
	})

	t.Run("Fresh", func(t *testing.T) {
		gen := contribution.NewSecretGenerator(&bls.G1{}, contribution.NewDeterministicReader([]byte("seed")))
		a, err := gen.Generate()
		require.NoError(t, err)
		b, err := gen.Generate()
		require.NoError(t, err)
		assert.False(t, a.Equal(b), "consecutive secrets must differ")
		assert.False(t, a.IsZero())
	})

	t.Run("SystemRandom", func(t *testing.T) {
		s, err := contribution.NewSecretGenerator(&bls.G1{}, nil).Generate()
		require.NoError(t, err)
		assert.False(t, s.IsZero())
	})

	t.Run("ZeroSource", func(t *testing.T) {
		_, err := contribution.NewSecretGenerator(&bls.G1{}, zeroReader{}).Generate()
		assert.ErrorIs(t, err, contribution.ErrNoEntropy)
	})

	t.Run("BrokenSource", func(t *testing.T) {
		_, err := contribution.NewSecretGenerator(&bls.G1{}, failingReader{}).Generate()
		assert.Error(t, err)
	})
}

func TestDeterministicReader(t *testing.T) {
	read := func(seed string) []byte {
		buf := make([]byte, 96)
		_, err := io.ReadFull(contribution.NewDeterministicReader([]byte(seed)), buf)
		require.NoError(t, err)
		return buf
	}
	assert.Equal(t, read("a"), read("a"))
	assert.NotEqual(t, read("a"), read("b"))
}

func TestAttemptContribute(t *testing.T) {
	const seed = "contribute"
	batch := curvetest.Batch(t, curvetest.Scalar(9), curvetest.Size{G1: 4, G2: 2}, curvetest.Size{G1: 3, G2: 1})
	snapshot := batch.Clone()

	out, err := newAttempt(t, seed).Contribute(batch, testIdentity)
	require.NoError(t, err)
	assert.Equal(t, snapshot, batch, "input batch must not be modified")

	// Same seed, same secret: recompute the expected result directly.
	x, err := contribution.NewSecretGenerator(&bls.G1{}, contribution.NewDeterministicReader([]byte(seed))).Generate()
	require.NoError(t, err)
	want, err := ceremony.NewUpdater(&bls.G1{}, &bls.G2{}).Update(batch, x)
	require.NoError(t, err)

	require.Len(t, out.Contributions, 2)
	for i := range out.Contributions {
		got := out.Contributions[i]
		assert.Equal(t, want.Contributions[i].PowersOfTau, got.PowersOfTau)
		assert.Equal(t, curvetest.PointHex(&bls.G2{}, x), got.PotPubkey)
		assert.NotEmpty(t, got.BLSSignature)

		ok, err := contribution.VerifyIdentity(&got, testIdentity)
		require.NoError(t, err)
		assert.True(t, ok, "signature must verify under potPubkey")

		ok, err = contribution.VerifyIdentity(&got, "eth|0x0000000000000000000000000000000000000000")
		require.NoError(t, err)
		assert.False(t, ok, "signature must not verify for another identity")
	}
	assert.Equal(t, out.Contributions[0].BLSSignature, out.Contributions[1].BLSSignature,
		"one secret signs every sub-ceremony")
}

func TestAttemptSingleUse(t *testing.T) {
	batch := curvetest.Batch(t, curvetest.Scalar(4), curvetest.Size{G1: 2, G2: 1})
	a := newAttempt(t, "single-use")
	assert.False(t, a.IsConsumed())

	_, err := a.Contribute(batch, testIdentity)
	require.NoError(t, err)
	assert.True(t, a.IsConsumed())

	_, err = a.Contribute(batch, testIdentity)
	assert.ErrorIs(t, err, contribution.ErrAttemptConsumed)
}

func TestAttemptInvalidBatch(t *testing.T) {
	batch := curvetest.Batch(t, curvetest.Scalar(4), curvetest.Size{G1: 3, G2: 1})
	batch.Contributions[0].PowersOfTau.G1Powers[2] = curvetest.NonSubgroupG1Hex(t)

	a := newAttempt(t, "invalid")
	_, err := a.Contribute(batch, testIdentity)
	assert.ErrorIs(t, err, contribution.ErrInvalidBatch)
	assert.ErrorIs(t, err, ceremony.ErrNotInSubgroup)
	assert.True(t, a.IsConsumed(), "a failed attempt is still consumed")

	_, err = a.Contribute(curvetest.Batch(t, curvetest.Scalar(4), curvetest.Size{G1: 3, G2: 1}), testIdentity)
	assert.ErrorIs(t, err, contribution.ErrAttemptConsumed)
}

func TestAttemptDiscard(t *testing.T) {
	a := newAttempt(t, "discard")
	a.Discard()
	assert.True(t, a.IsConsumed())

	_, err := a.Contribute(curvetest.Batch(t, curvetest.Scalar(2), curvetest.Size{G1: 1, G2: 1}), testIdentity)
	assert.ErrorIs(t, err, contribution.ErrAttemptConsumed)
}

func TestNewAttemptEntropyFailure(t *testing.T) {
	gen := contribution.NewSecretGenerator(&bls.G1{}, failingReader{})
	_, err := contribution.NewAttempt(gen, ceremony.NewValidator(&bls.G1{}, &bls.G2{}), ceremony.NewUpdater(&bls.G1{}, &bls.G2{}))
	assert.Error(t, err)
}

func TestVerifyIdentityMalformed(t *testing.T) {
	sub := &ceremony.SubCeremony{PotPubkey: "0x00", BLSSignature: "0x00"}
	_, err := contribution.VerifyIdentity(sub, testIdentity)
	assert.Error(t, err)
}

func TestBuildTypedData(t *testing.T) {
	batch := curvetest.Batch(t, curvetest.Scalar(3), curvetest.Size{G1: 4, G2: 2}, curvetest.Size{G1: 2, G2: 1})
	td := contribution.BuildTypedData(batch)

	assert.Equal(t, "PoTPubkeys", td.PrimaryType)
	assert.Equal(t, 1, td.Domain.ChainID)
	require.Len(t, td.Message.PotPubkeys, 2)
	assert.Equal(t, 4, td.Message.PotPubkeys[0].NumG1Powers)
	assert.Equal(t, batch.Contributions[1].PotPubkey, td.Message.PotPubkeys[1].PotPubkey)

	raw, err := json.Marshal(td)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded["types"], "contributionPubkey")
	assert.Contains(t, decoded, "primaryType")
}
