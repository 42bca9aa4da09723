// Package ledger implements the pure balance calculator: it nets shared
// expenses and settled settlement groups into per-participant signed balances.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/anikv/roomledger/internal/models"
	"github.com/anikv/roomledger/internal/money"
)

// Balance is the derived net position of one participant.
// Positive = net creditor (is owed money), negative = net debtor (owes money).
type Balance struct {
	Participant models.ParticipantRef
	Amount      decimal.Decimal
}

// DebtEdge represents a suggested repayment from one participant to another.
type DebtEdge struct {
	From   models.ParticipantRef
	To     models.ParticipantRef
	Amount decimal.Decimal
}

// ComputeBalances nets expenses and settled settlements into per-participant
// balances, keyed by ParticipantRef.Key().
//
// Algorithm:
//   - Every roster member starts at zero.
//   - For each expense: the payer is credited the full amount and each sharer
//     is debited amount/|sharers|. An empty sharer set falls back to the
//     roster; if that is also empty the debit step is skipped.
//   - For each settled transaction group: the debtor is credited and the
//     creditor debited by the group amount, unwinding the expense-derived
//     imbalance. Pending and debtor_paid groups never net — the money has not
//     observably moved yet.
//   - Participants appearing only in historical data are added on the fly; the
//     roster is a hint, not a filter.
//
// The function is pure and never errors on messy data. Results are rounded to
// two places only in the final pass.
func ComputeBalances(expenses []models.Expense, settlements []*models.SettlementRecord, roster []models.ParticipantRef) map[string]*Balance {
	balances := make(map[string]*Balance)

	ensure := func(p models.ParticipantRef) *Balance {
		key := p.Key()
		if key == "" {
			return nil
		}
		if b, ok := balances[key]; ok {
			// Prefer the resolved ref when the same participant shows up
			// both resolved and name-only.
			if !b.Participant.Resolved() && p.Resolved() {
				b.Participant = p
			}
			return b
		}
		b := &Balance{Participant: p, Amount: decimal.Zero}
		balances[key] = b
		return b
	}

	for _, p := range roster {
		ensure(p)
	}

	for _, exp := range expenses {
		if !money.IsPositive(exp.Amount) {
			continue
		}

		payer := ensure(exp.PaidBy)
		if payer == nil {
			continue
		}
		payer.Amount = payer.Amount.Add(exp.Amount)

		sharers := exp.Sharers
		if len(sharers) == 0 {
			sharers = roster
		}
		if len(sharers) == 0 {
			continue
		}

		share := money.SplitEqual(exp.Amount, len(sharers))
		for _, s := range sharers {
			b := ensure(s)
			if b == nil {
				continue
			}
			b.Amount = b.Amount.Sub(share)
		}
	}

	// Mirrored rows describe the same transaction twice, so net once per group.
	seenGroups := make(map[string]bool)
	for _, row := range settlements {
		if row.Status != models.StatusSettled {
			continue
		}
		if seenGroups[row.TransactionGroupID] {
			continue
		}
		seenGroups[row.TransactionGroupID] = true

		debtor := ensure(row.Debtor())
		creditor := ensure(row.Creditor())
		if debtor == nil || creditor == nil {
			continue
		}
		debtor.Amount = debtor.Amount.Add(row.Amount)
		creditor.Amount = creditor.Amount.Sub(row.Amount)
	}

	for _, b := range balances {
		b.Amount = money.Round2(b.Amount)
	}

	return balances
}

// SuggestTransfers reduces a balance map to a minimal set of repayments using
// greedy matching of debtors against creditors. Residues within the money
// epsilon are dropped as rounding noise.
func SuggestTransfers(balances map[string]*Balance) []DebtEdge {
	var creditors, debtors []*Balance
	for _, b := range balances {
		switch {
		case b.Amount.Sign() > 0 && !money.IsZero(b.Amount):
			creditors = append(creditors, b)
		case b.Amount.Sign() < 0 && !money.IsZero(b.Amount):
			debtors = append(debtors, b)
		}
	}

	owed := make(map[string]decimal.Decimal, len(debtors))
	due := make(map[string]decimal.Decimal, len(creditors))
	for _, d := range debtors {
		owed[d.Participant.Key()] = d.Amount.Neg()
	}
	for _, c := range creditors {
		due[c.Participant.Key()] = c.Amount
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := debtors[i]
		creditor := creditors[j]

		amount := owed[debtor.Participant.Key()]
		if due[creditor.Participant.Key()].Cmp(amount) < 0 {
			amount = due[creditor.Participant.Key()]
		}

		if !money.IsZero(amount) {
			edges = append(edges, DebtEdge{
				From:   debtor.Participant,
				To:     creditor.Participant,
				Amount: money.Round2(amount),
			})
		}

		owed[debtor.Participant.Key()] = owed[debtor.Participant.Key()].Sub(amount)
		due[creditor.Participant.Key()] = due[creditor.Participant.Key()].Sub(amount)

		if money.IsZero(owed[debtor.Participant.Key()]) {
			i++
		}
		if money.IsZero(due[creditor.Participant.Key()]) {
			j++
		}
	}

	return edges
}
