package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes registration and profile endpoints.
type Handler struct {
	service    *Service
	accountKey string
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, accountKey string) *Handler {
	return &Handler{service: service, accountKey: accountKey}
}

type registerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Register onboards a user with their wallet and returns the account id,
// which doubles as the bearer token.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrBlacklisted):
			return fiber.NewError(http.StatusForbidden, err.Error())
		case errors.Is(err, ErrBlacklistUnavailable):
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		default:
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"token":  user.ID,
		"email":  user.Email,
	})
}

// Me returns the authenticated user's profile and wallet summary.
func (h *Handler) Me(c *fiber.Ctx) error {
	accountID, _ := c.Locals(h.accountKey).(string)
	user, w, err := h.service.Profile(c.UserContext(), accountID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"created_at": user.CreatedAt.Format(time.RFC3339),
		"wallet": fiber.Map{
			"id":       w.ID,
			"balance":  w.Balance,
			"currency": w.Currency,
		},
	})
}
