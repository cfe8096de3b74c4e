package inheritance

import (
	"math/bits"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
)

// Payout is a single value transfer made when a plan is distributed.
type Payout struct {
	To     bequest.Address `json:"to"`
	Amount uint64          `json:"amount"`
}

// ComputePayouts returns the payouts distributing the whole escrow of the
// plan, in beneficiary order. The sum of all payouts always equals the
// escrowed value. Payouts of zero value are omitted.
//
// In the proportional model each beneficiary gets
// floor(escrow * share / 10000). The rounding remainder of the allocated
// part, floor(escrow * totalShares / 10000), goes to the last beneficiary
// and the unallocated part goes back to the owner. In the fixed amount
// model each beneficiary gets its amount and the unallocated residual goes
// back to the owner. A plan without beneficiaries returns everything to the
// owner.
func ComputePayouts(p *Plan) ([]Payout, error) {
	escrow := p.EscrowedValue
	if len(p.Beneficiaries) == 0 {
		return appendPayout(nil, p.Owner, escrow), nil
	}

	// allocated is the part of the escrow owed to the beneficiaries.
	allocated := escrow
	if p.Model == ModelProportional {
		total := p.TotalShares()
		if total > MaxShare {
			return nil, errors.Wrapf(ErrAllocationExceeded, "shares sum to %d basis points", total)
		}
		allocated = proportion(escrow, total)
	}

	amounts := make([]uint64, len(p.Beneficiaries))
	var paid uint64
	for i, b := range p.Beneficiaries {
		switch p.Model {
		case ModelProportional:
			amounts[i] = proportion(escrow, uint64(b.Share))
		case ModelFixedAmount:
			amounts[i] = b.Amount
		default:
			return nil, errors.Wrapf(errors.ErrModel, "unknown payout model %d", int32(p.Model))
		}
		if amounts[i] > allocated-paid {
			return nil, errors.Wrapf(ErrAllocationExceeded, "payouts exceed escrow of %d", escrow)
		}
		paid += amounts[i]
	}

	if p.Model == ModelProportional {
		// the sum of floors is at most allocated, less by the rounding
		amounts[len(amounts)-1] += allocated - paid
		paid = allocated
	}

	var payouts []Payout
	for i, b := range p.Beneficiaries {
		payouts = appendPayout(payouts, b.Address, amounts[i])
	}
	return appendPayout(payouts, p.Owner, escrow-paid), nil
}

func appendPayout(payouts []Payout, to bequest.Address, amount uint64) []Payout {
	if amount == 0 {
		return payouts
	}
	return append(payouts, Payout{To: to, Amount: amount})
}

// proportion returns floor(value * share / MaxShare). The product is
// computed on 128 bits so it never overflows. Share must not exceed
// MaxShare.
func proportion(value uint64, share uint64) uint64 {
	hi, lo := bits.Mul64(value, share)
	quo, _ := bits.Div64(hi, lo, MaxShare)
	return quo
}
