package calculator

import "github.com/shopspring/decimal"

// settleThreshold is half a cent below the smallest representable unit.
// Nets within ±settleThreshold of zero are treated as settled.
var settleThreshold = decimal.RequireFromString("0.009")

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	ID      string
	GroupID string
	PayerID string
}

// SplitForBalance is one persisted split row joined with the participant's
// display attributes.
type SplitForBalance struct {
	ExpenseID string
	UserID    string
	Amount    decimal.Decimal
	UserName  string
	UserEmail string
}

// Counterparty is a member the viewer has a non-settled net balance with.
type Counterparty struct {
	UserID string
	Name   string
	Amount decimal.Decimal // Always positive; direction is given by the list it is in
}

// Summary is a viewer's rolled-up position across every group they belong to.
type Summary struct {
	TotalBalance decimal.Decimal // TotalOwed - TotalOwes
	TotalOwed    decimal.Decimal // Others owe the viewer
	TotalOwes    decimal.Decimal // The viewer owes others
	OwedBy       []Counterparty
	OwesTo       []Counterparty
}

// ZeroSummary returns a summary with all totals zero and empty lists.
func ZeroSummary() Summary {
	return Summary{
		TotalBalance: decimal.Zero,
		TotalOwed:    decimal.Zero,
		TotalOwes:    decimal.Zero,
		OwedBy:       []Counterparty{},
		OwesTo:       []Counterparty{},
	}
}

// netEntry accumulates the signed balance with one counterparty.
// Positive = counterparty owes viewer, negative = viewer owes counterparty.
type netEntry struct {
	userID string
	name   string
	amount decimal.Decimal
}

// ComputeSummary computes the viewer's net balance with every counterparty
// from the expenses and split rows visible to them.
//
// Algorithm:
//   - Payer == participant rows are skipped; a payer never owes themself
//   - Viewer paid: the participant owes the viewer their split
//   - Viewer participated: the viewer owes the payer their split
//   - Rows not involving the viewer are ignored
//   - Nets within ±0.009 are considered settled and omitted
//
// Counterparties are listed in order of first encounter while scanning splits.
func ComputeSummary(viewerID string, groupIDs []string, expenses []ExpenseForBalance, splits []SplitForBalance) Summary {
	if len(groupIDs) == 0 || len(expenses) == 0 {
		return ZeroSummary()
	}

	visible := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		visible[id] = struct{}{}
	}

	// Map expense -> payer
	paidBy := make(map[string]string, len(expenses))
	for _, e := range expenses {
		if _, ok := visible[e.GroupID]; !ok {
			continue
		}
		paidBy[e.ID] = e.PayerID
	}
	if len(paidBy) == 0 {
		return ZeroSummary()
	}

	// Display name of each user from the first split row naming them
	names := make(map[string]string)
	for _, s := range splits {
		if _, ok := names[s.UserID]; !ok {
			names[s.UserID] = displayName(s.UserName, s.UserEmail, s.UserID)
		}
	}
	nameOf := func(userID string) string {
		if name, ok := names[userID]; ok {
			return name
		}
		return userID
	}

	nets := make(map[string]*netEntry)
	var order []string

	entryFor := func(userID string) *netEntry {
		if e, ok := nets[userID]; ok {
			return e
		}
		e := &netEntry{userID: userID, name: nameOf(userID), amount: decimal.Zero}
		nets[userID] = e
		order = append(order, userID)
		return e
	}

	for _, s := range splits {
		payer, ok := paidBy[s.ExpenseID]
		if !ok || payer == "" {
			continue
		}

		// The payer doesn't owe themselves
		if payer == s.UserID {
			continue
		}

		switch {
		case payer == viewerID:
			e := entryFor(s.UserID)
			e.amount = e.amount.Add(s.Amount)
		case s.UserID == viewerID:
			e := entryFor(payer)
			e.amount = e.amount.Sub(s.Amount)
		}
	}

	summary := ZeroSummary()
	totalOwed := decimal.Zero
	totalOwes := decimal.Zero

	for _, id := range order {
		e := nets[id]
		switch {
		case e.amount.GreaterThan(settleThreshold):
			totalOwed = totalOwed.Add(e.amount)
			summary.OwedBy = append(summary.OwedBy, Counterparty{
				UserID: e.userID,
				Name:   e.name,
				Amount: RoundCents(e.amount),
			})
		case e.amount.LessThan(settleThreshold.Neg()):
			owed := e.amount.Neg()
			totalOwes = totalOwes.Add(owed)
			summary.OwesTo = append(summary.OwesTo, Counterparty{
				UserID: e.userID,
				Name:   e.name,
				Amount: RoundCents(owed),
			})
		}
	}

	summary.TotalOwed = RoundCents(totalOwed)
	summary.TotalOwes = RoundCents(totalOwes)
	summary.TotalBalance = RoundCents(totalOwed.Sub(totalOwes))

	return summary
}

func displayName(name, email, id string) string {
	if name != "" {
		return name
	}
	if email != "" {
		return email
	}
	return id
}
