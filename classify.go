package rhfolio

import (
	"slices"
	"strings"
)

// Strategy is the label the classifier assigns to an option position.
type Strategy int

const (
	Unclassified Strategy = iota
	CoveredCall
	CashSecuredPut
	VerticalSpread
	NakedCall
	NakedPut
)

func (s Strategy) String() string {
	switch s {
	case CoveredCall:
		return "Covered Call"
	case CashSecuredPut:
		return "Cash-Secured Put"
	case VerticalSpread:
		return "Vertical Spread"
	case NakedCall:
		return "Naked Call"
	case NakedPut:
		return "Naked Put"
	default:
		return "Unclassified"
	}
}

// shareLot is one stock position usable as call covering. A lot covers at
// most one call position, whatever its size, so covering never double-counts
// shares.
type shareLot struct {
	shares Quantity
	used   bool
}

type lotKey struct {
	account Account
	symbol  string
}

type clusterKey struct {
	account    Account
	symbol     string
	expiration Date
}

// Classify labels every option position with the most specific strategy its
// cluster supports. Positions cluster by account, underlying and expiration,
// and the rules run in a fixed precedence:
//
//  1. a lone short call backed by a stock lot of at least 100 shares per
//     contract is a Covered Call, and consumes the lot,
//  2. a lone short put backed by account cash of at least strike x 100 x
//     contracts is a Cash-Secured Put,
//  3. a pair of same-type positions on opposite sides is a Vertical Spread,
//  4. a lone short option with no covering evidence is a Naked Call or Put,
//  5. everything else is Unclassified.
//
// Clusters are visited soonest expiration first, so when several short calls
// compete for the same stock, the earliest expiring one is covered and later
// ones degrade to Naked Call. Cash backing is not consumed, several puts may
// claim the same cash pool.
//
// Classify is pure, the input slices are left untouched.
func Classify(options []OptionPosition, stocks []StockPosition, balances []Balance) []OptionPosition {
	out := slices.Clone(options)

	lots := make(map[lotKey][]*shareLot)
	for _, s := range stocks {
		k := lotKey{s.Account, s.Symbol}
		lots[k] = append(lots[k], &shareLot{shares: s.Shares})
	}

	cash := make(map[Account]Money)
	for _, b := range balances {
		cash[b.Account] = b.Cash
	}

	clusters := make(map[clusterKey][]int)
	for i, p := range out {
		k := clusterKey{p.Account, p.Symbol, p.Expiration}
		clusters[k] = append(clusters[k], i)
	}

	keys := make([]clusterKey, 0, len(clusters))
	for k := range clusters {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareClusters)

	for _, k := range keys {
		idx := clusters[k]
		switch len(idx) {
		case 1:
			p := &out[idx[0]]
			switch {
			case p.Side == Short && p.Type == Call:
				if coverCall(lots[lotKey{k.account, k.symbol}], p.Shares()) {
					p.Strategy = CoveredCall
				} else {
					p.Strategy = NakedCall
				}
			case p.Side == Short && p.Type == Put:
				required := p.Strike.Mul(p.Shares())
				if cash[k.account].GreaterThanOrEqual(required) {
					p.Strategy = CashSecuredPut
				} else {
					p.Strategy = NakedPut
				}
			default:
				p.Strategy = Unclassified
			}
		case 2:
			a, b := &out[idx[0]], &out[idx[1]]
			if a.Type == b.Type && a.Side != b.Side {
				a.Strategy = VerticalSpread
				b.Strategy = VerticalSpread
			} else {
				a.Strategy = Unclassified
				b.Strategy = Unclassified
			}
		default:
			for _, i := range idx {
				out[i].Strategy = Unclassified
			}
		}
	}
	return out
}

// compareClusters orders clusters soonest expiration first, the rest of the
// key only keeps the walk deterministic.
func compareClusters(a, b clusterKey) int {
	switch {
	case a.expiration.Before(b.expiration):
		return -1
	case b.expiration.Before(a.expiration):
		return 1
	}
	if c := strings.Compare(a.symbol, b.symbol); c != 0 {
		return c
	}
	if c := strings.Compare(a.account.Name, b.account.Name); c != 0 {
		return c
	}
	return strings.Compare(a.account.Number, b.account.Number)
}

// coverCall marks the smallest unused lot holding at least need shares as
// consumed, and reports whether one was found.
func coverCall(lots []*shareLot, need Quantity) bool {
	var best *shareLot
	for _, lot := range lots {
		if lot.used || lot.shares.LessThan(need) {
			continue
		}
		if best == nil || lot.shares.LessThan(best.shares) {
			best = lot
		}
	}
	if best == nil {
		return false
	}
	best.used = true
	return true
}
