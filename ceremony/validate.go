package ceremony

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/f3rmion/tau/bls"
	"github.com/f3rmion/tau/group"
)

// Validator checks that a batch received from the coordinator is well
// formed and that every point lies in the prime-order subgroup.
//
// A batch must pass validation before any of its points is combined with a
// participant's secret: a point from a small subgroup or an invalid curve
// could otherwise leak information about that secret.
type Validator struct {
	short    group.Group
	extended group.Group
	opts     options
}

// NewValidator creates a validator for the given short and extended groups.
func NewValidator(short, extended group.Group, opts ...Option) *Validator {
	return &Validator{
		short:    short,
		extended: extended,
		opts:     newOptions(opts),
	}
}

// Validate reports whether every declared power of every sub-ceremony in
// batch decodes to a subgroup point and all declared counts are consistent.
func (v *Validator) Validate(batch *Batch) bool {
	return v.Check(batch) == nil
}

// Check is like Validate but returns every failure found, joined.
// It never stops at the first failing point or sub-ceremony.
func (v *Validator) Check(batch *Batch) error {
	if batch == nil || len(batch.Contributions) == 0 {
		return ErrEmptyBatch
	}

	// Each slot owns its own error slice; no locking needed.
	failures := make([][]error, len(batch.Contributions))

	var eg errgroup.Group
	eg.SetLimit(v.opts.workers)
	for i := range batch.Contributions {
		eg.Go(func() error {
			failures[i] = v.checkSubCeremony(i, &batch.Contributions[i])
			return nil
		})
	}
	_ = eg.Wait()

	var all []error
	for _, errs := range failures {
		all = append(all, errs...)
	}
	if len(all) > 0 {
		v.opts.logger.Warn("batch failed validation",
			zap.Int("sub_ceremonies", len(batch.Contributions)),
			zap.Int("failures", len(all)),
		)
	}
	return errors.Join(all...)
}

func (v *Validator) checkSubCeremony(slot int, c *SubCeremony) []error {
	var errs []error

	g1 := c.PowersOfTau.G1Powers
	g2 := c.PowersOfTau.G2Powers
	if c.NumG1Powers != len(g1) {
		errs = append(errs, fmt.Errorf("slot %d: %w: numG1Powers=%d, got %d", slot, ErrLengthMismatch, c.NumG1Powers, len(g1)))
	}
	if c.NumG2Powers != len(g2) {
		errs = append(errs, fmt.Errorf("slot %d: %w: numG2Powers=%d, got %d", slot, ErrLengthMismatch, c.NumG2Powers, len(g2)))
	}
	if c.NumG2Powers > c.NumG1Powers {
		errs = append(errs, fmt.Errorf("slot %d: %w", slot, ErrExtendedExceedsShort))
	}

	errs = append(errs, checkPowers(v.short, slot, g1)...)
	errs = append(errs, checkPowers(v.extended, slot, g2)...)
	return errs
}

// checkPowers decodes every encoding in powers, collecting all failures.
func checkPowers(g group.Group, slot int, powers []string) []error {
	var errs []error
	for i, enc := range powers {
		if err := checkPoint(g, enc); err != nil {
			errs = append(errs, &PointError{Slot: slot, Group: g.Name(), Index: i, Err: err})
		}
	}
	return errs
}

func checkPoint(g group.Group, enc string) error {
	p, err := bls.PointFromHex(g, enc)
	if err != nil {
		if errors.Is(err, bls.ErrInvalidPoint) {
			return fmt.Errorf("%w: %v", ErrNotInSubgroup, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformedPoint, err)
	}
	if !p.InSubgroup() {
		return ErrNotInSubgroup
	}
	return nil
}
