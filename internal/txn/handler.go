package txn

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/store"
)

// Handler exposes the coordinator's operations over HTTP. The authenticated
// account id is supplied by the auth middleware via fiber locals.
type Handler struct {
	coordinator *Coordinator
	accountKey  string
}

// NewHandler builds a transaction HTTP handler. accountKey names the fiber
// local holding the authenticated account id.
func NewHandler(coordinator *Coordinator, accountKey string) *Handler {
	return &Handler{coordinator: coordinator, accountKey: accountKey}
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
}

// Fund credits the caller's wallet.
func (h *Handler) Fund(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.coordinator.Fund(c.UserContext(), h.account(c), req.Amount)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":    "success",
		"amount":    res.Amount,
		"reference": res.Reference,
	})
}

// Withdraw debits the caller's wallet.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	var req amountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.coordinator.Withdraw(c.UserContext(), h.account(c), req.Amount); err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"message": "withdrawal successful",
	})
}

// Transfer moves funds from the caller's wallet to the receiver's.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.coordinator.Transfer(c.UserContext(), h.account(c), req.Email, req.Amount)
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":      "success",
		"amount":      res.Amount,
		"transfer_id": res.TransferID,
	})
}

// Balance returns the caller's wallet balance and currency.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.coordinator.Balance(c.UserContext(), h.account(c))
	if err != nil {
		return httpError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"balance":   balance.Amount,
		"currency":  balance.Currency,
		"timestamp": balance.AsOf.Format(time.RFC3339Nano),
	})
}

// History returns the caller's ledger entries, most recent first.
func (h *Handler) History(c *fiber.Ctx) error {
	entries, err := h.coordinator.History(c.UserContext(), h.account(c))
	if err != nil {
		return httpError(err)
	}
	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, fiber.Map{
			"id":         e.ID,
			"kind":       e.Kind,
			"amount":     e.Amount,
			"reference":  e.Reference,
			"status":     e.Status,
			"created_at": e.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"results": len(out),
		"data":    out,
	})
}

func (h *Handler) account(c *fiber.Ctx) string {
	accountID, _ := c.Locals(h.accountKey).(string)
	return accountID
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrSelfTransfer):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrReceiverNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrLockTimeout):
		return fiber.NewError(http.StatusServiceUnavailable, "wallet busy, retry shortly")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
