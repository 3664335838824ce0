package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/naira-pay/naira_pay/internal/identity"
)

// RegisterAuthRoutes wires public onboarding endpoints.
func RegisterAuthRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/auth/register", h.Register)
}
