package core

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// Settlement is the outcome of splitting a trip's expenses equally.
type Settlement struct {
	Total Money
	// Share is the exact equal share in currency units. It is usually not
	// currency-shaped; ShareRounded gives the displayed value.
	Share     float64
	Balances  []Balance // one per participant, input order
	Transfers []Transfer
	// Residual is the sum of the rounded balances. Per-participant rounding
	// is not reconciled, so it can be a few cents away from zero.
	Residual Money
}

// ShareRounded returns the per-person share rounded to the cent.
func (s Settlement) ShareRounded() Money {
	return FromFloat(s.Share)
}

type position struct {
	name      string
	remaining int64
}

// ComputeSettlement splits the total equally and returns the transfers that
// bring every balance to zero, using greedy largest-debtor/largest-creditor
// pairing.
//
// Balances are rounded to the cent (halves away from zero). Creditors and
// debtors are each sorted by descending magnitude; equal magnitudes keep
// input order. The result is deterministic for a given entry order and
// holds at most creditors+debtors-1 transfers.
func ComputeSettlement(entries []Entry) (Settlement, error) {
	if len(entries) < 2 {
		return Settlement{}, ErrInsufficientParticipants
	}

	seen := make(map[string]struct{}, len(entries))
	var total Money
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return Settlement{}, err
		}
		if _, dup := seen[e.Name]; dup {
			return Settlement{}, fmt.Errorf("%w: duplicate participant %q", ErrInvalidInput, e.Name)
		}
		seen[e.Name] = struct{}{}
		var err error
		if total, err = total.Add(e.Spent); err != nil {
			return Settlement{}, err
		}
	}

	shareCents := float64(total.Cents) / float64(len(entries))
	result := Settlement{
		Total:    total,
		Share:    shareCents / 100,
		Balances: make([]Balance, 0, len(entries)),
	}

	var creditors, debtors []position
	for _, e := range entries {
		bal := int64(math.Round(float64(e.Spent.Cents) - shareCents))
		result.Balances = append(result.Balances, Balance{Name: e.Name, Amount: Money{Cents: bal}})
		result.Residual.Cents += bal
		switch {
		case bal > 0:
			creditors = append(creditors, position{name: e.Name, remaining: bal})
		case bal < 0:
			debtors = append(debtors, position{name: e.Name, remaining: -bal})
		}
	}

	byMagnitude := func(a, b position) int { return cmp.Compare(b.remaining, a.remaining) }
	slices.SortStableFunc(creditors, byMagnitude)
	slices.SortStableFunc(debtors, byMagnitude)

	result.Transfers = matchTransfers(debtors, creditors)
	return result, nil
}

// matchTransfers walks both lists with independent cursors. The debtor and
// creditor cursors are checked separately so both advance when a payment
// settles the pair exactly.
func matchTransfers(debtors, creditors []position) []Transfer {
	transfers := make([]Transfer, 0, max(len(debtors)+len(creditors)-1, 0))
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		pay := min(d.remaining, c.remaining)
		if pay > 0 {
			transfers = append(transfers, Transfer{
				Payer:    d.name,
				Receiver: c.name,
				Amount:   Money{Cents: pay},
			})
		}
		d.remaining -= pay
		c.remaining -= pay

		if d.remaining == 0 {
			i++
		}
		if c.remaining == 0 {
			j++
		}
	}
	return transfers
}
