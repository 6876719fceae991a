package namedinference

import "github.com/roach88/namedtensor/internal/dimname"

// BinaryOpPolicy decides how two operands of a broadcasting binary
// operation are prepared and what names the result gets.
//
// It returns the operands to hand to the kernel (a by-name policy could
// permute them) and the names to attach to the kernel's result. On error
// the kernel must not run.
type BinaryOpPolicy interface {
	UnifyForBinaryOp(lhs, rhs Named) (Named, Named, dimname.Optional, error)
}

// ByPosition broadcasts by position and uses names only to check that the
// alignment is consistent. Operands are returned unchanged.
type ByPosition struct{}

// UnifyForBinaryOp implements BinaryOpPolicy.
func (ByPosition) UnifyForBinaryOp(lhs, rhs Named) (Named, Named, dimname.Optional, error) {
	ln, rn := lhs.Names(), rhs.Names()
	if !ln.IsPresent() && !rn.IsPresent() {
		return lhs, rhs, dimname.None(), nil
	}

	// Broadcasting may change rank, so an unnamed side counts as wildcards.
	out, err := UnifyFromRight(
		dimname.Some(ln.OrWildcards(lhs.Rank())),
		dimname.Some(rn.OrWildcards(rhs.Rank())),
	)
	if err != nil {
		return nil, nil, dimname.None(), err
	}
	return lhs, rhs, out, nil
}

// UnifyNamesForBinaryOp prepares lhs and rhs for a broadcasting binary
// operation using ByPosition.
func UnifyNamesForBinaryOp(lhs, rhs Named) (Named, Named, dimname.Optional, error) {
	return ByPosition{}.UnifyForBinaryOp(lhs, rhs)
}

// String names the policy in run metadata.
func (ByPosition) String() string { return "by-position" }
