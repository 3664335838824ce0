package wallet

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets a wallet balance directly when using
// the in-memory repository, bypassing the ledger.
func SeedBalance(r Repository, accountID string, amount decimal.Decimal) {
	if mem, ok := r.(*memoryRepository); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if walletID, ok := mem.byAccount[accountID]; ok {
			w := mem.storage[walletID]
			w.Balance = amount
			mem.storage[walletID] = w
		}
	}
}
