package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/naira-pay/naira_pay/internal/txn"
)

// RegisterWalletRoutes wires the wallet transaction endpoints.
func RegisterWalletRoutes(r fiber.Router, h *txn.Handler) {
	r.Post("/wallet/fund", h.Fund)
	r.Post("/wallet/withdraw", h.Withdraw)
	r.Post("/wallet/transfer", h.Transfer)
	r.Get("/wallet/balance", h.Balance)
	r.Get("/wallet/history", h.History)
}
