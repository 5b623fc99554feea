package rhfolio

import "fmt"

// AccountType classifies a brokerage account.
type AccountType int

const (
	// Standard is a regular taxable brokerage account.
	Standard AccountType = iota
	// IRA is a retirement account, it cannot hold uncovered short options.
	IRA
	// Other is any additional brokerage account.
	Other
	// CryptoAccount is the pseudo account holding crypto positions, it has
	// no account number of its own.
	CryptoAccount
)

func (t AccountType) String() string {
	switch t {
	case Standard:
		return "standard"
	case IRA:
		return "ira"
	case Other:
		return "other"
	case CryptoAccount:
		return "crypto"
	default:
		return "unknown"
	}
}

// Label is the account type the way reports display it.
func (t AccountType) Label() string {
	switch t {
	case Standard:
		return "Standard"
	case IRA:
		return "IRA"
	case Other:
		return "Other"
	case CryptoAccount:
		return "Crypto"
	default:
		return "Unknown"
	}
}

// ParseAccountType parses a string into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	switch s {
	case "standard":
		return Standard, nil
	case "ira":
		return IRA, nil
	case "other":
		return Other, nil
	case "crypto":
		return CryptoAccount, nil
	default:
		return 0, fmt.Errorf("unknown account type: %q", s)
	}
}

// Account identifies one brokerage account.
type Account struct {
	Name   string      // display label, e.g. "Main" or "IRA"
	Number string      // brokerage account number, empty for the crypto pseudo account
	Type   AccountType
}

// Balance holds the cash figures of one account at fetch time.
type Balance struct {
	Account        Account
	Equity         Money // total account value including positions
	Cash           Money
	Collateral     Money // cash held against short option positions
	UnsettledFunds Money
}

// AvailableCash is the cash not locked as option collateral.
func (b Balance) AvailableCash() Money { return b.Cash.Sub(b.Collateral) }

func (b Balance) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("account", b.Account.Name)
	w.Append("type", b.Account.Type.String())
	w.Append("equity", b.Equity)
	w.Append("cash", b.Cash)
	w.Append("collateral", b.Collateral)
	w.Append("unsettled", b.UnsettledFunds)
	return w.MarshalJSON()
}
