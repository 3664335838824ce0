package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the stored-value account owned by exactly one user. The balance
// column is a materialized view of the wallet's ledger entries; only the
// transaction coordinator mutates it.
type Wallet struct {
	ID        string
	AccountID string
	Balance   decimal.Decimal
	Currency  string
	CreatedAt time.Time
}

// Balance is a committed point-in-time read of a wallet's funds.
type Balance struct {
	WalletID string
	Amount   decimal.Decimal
	Currency string
	AsOf     time.Time
}
