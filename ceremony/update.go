package ceremony

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f3rmion/tau/bls"
	"github.com/f3rmion/tau/group"
)

// Updater applies a participant's secret to every sub-ceremony of a batch.
type Updater struct {
	short    group.Group
	extended group.Group
	opts     options
}

// NewUpdater creates an updater for the given short and extended groups.
func NewUpdater(short, extended group.Group, opts ...Option) *Updater {
	return &Updater{
		short:    short,
		extended: extended,
		opts:     newOptions(opts),
	}
}

// Update returns a copy of batch in which power i of every sequence has been
// multiplied by x^i, and each sub-ceremony's PotPubkey set to x times the
// extended group's generator. batch itself is not modified.
//
// Sub-ceremonies are independent and are processed by a bounded pool of
// workers; Update returns only after all of them have finished. Workers
// only read x.
//
// The batch is expected to have passed [Validator.Check]; a point that fails
// to decode here is reported as an error and the whole result discarded.
func (u *Updater) Update(batch *Batch, x group.Scalar) (*Batch, error) {
	if batch == nil || len(batch.Contributions) == 0 {
		return nil, ErrEmptyBatch
	}
	out := batch.Clone()

	start := time.Now()
	var eg errgroup.Group
	eg.SetLimit(u.opts.workers)
	for i := range out.Contributions {
		eg.Go(func() error {
			return u.updateSubCeremony(i, &out.Contributions[i], x)
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	u.opts.logger.Debug("batch updated",
		zap.Int("sub_ceremonies", len(out.Contributions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (u *Updater) updateSubCeremony(slot int, c *SubCeremony, x group.Scalar) error {
	g1 := c.PowersOfTau.G1Powers
	g2 := c.PowersOfTau.G2Powers
	if c.NumG1Powers != len(g1) || c.NumG2Powers != len(g2) {
		return fmt.Errorf("slot %d: %w", slot, ErrLengthMismatch)
	}
	if c.NumG2Powers > c.NumG1Powers {
		return fmt.Errorf("slot %d: %w", slot, ErrExtendedExceedsShort)
	}

	xi := u.short.NewScalar().SetOne()
	defer xi.Zeroize()

	for i := 0; i < c.NumG1Powers; i++ {
		enc, err := multiplyEncoded(u.short, g1[i], xi)
		if err != nil {
			return &PointError{Slot: slot, Group: u.short.Name(), Index: i, Err: err}
		}
		g1[i] = enc

		if i < c.NumG2Powers {
			enc, err := multiplyEncoded(u.extended, g2[i], xi)
			if err != nil {
				return &PointError{Slot: slot, Group: u.extended.Name(), Index: i, Err: err}
			}
			g2[i] = enc
		}

		xi.Mul(xi, x)
	}

	pub := u.extended.NewPoint().ScalarMult(x, u.extended.Generator())
	c.PotPubkey = bls.PointToHex(pub)
	return nil
}

// multiplyEncoded decodes enc, multiplies it by s and re-encodes it.
func multiplyEncoded(g group.Group, enc string, s group.Scalar) (string, error) {
	p, err := bls.PointFromHex(g, enc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedPoint, err)
	}
	return bls.PointToHex(g.NewPoint().ScalarMult(s, p)), nil
}
