package adminValidator

import (
	"quizserver/controllers/adminControllers"
	"quizserver/middleware"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Login validator middleware
func Login() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Username string `json:"username"`
			Password string `json:"password"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Username) == "" {
			errors["username"] = "Username is required!"
		}
		if strings.TrimSpace(reqData.Password) == "" {
			errors["password"] = "Password is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedLogin", reqData)
		return c.Next()
	}
}

// Export validator middleware
func Export() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(adminControllers.ExportRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Format == "" {
			reqData.Format = "csv"
		}
		if reqData.Type == "" {
			reqData.Type = "users"
		}

		errors := make(map[string]string)

		if reqData.Format != "csv" && reqData.Format != "json" {
			errors["format"] = "Format must be csv or json!"
		}
		if reqData.Type != "users" && reqData.Type != "submissions" {
			errors["type"] = "Type must be users or submissions!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedExport", reqData)
		return c.Next()
	}
}
