package userValidator

import (
	"quizserver/controllers/userControllers"
	"quizserver/middleware"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Helper to validate phone number format
func isValidPhone(phone string) bool {
	re := regexp.MustCompile(`^\d{10}$`)
	return re.MatchString(phone)
}

// SubmitQuiz validator middleware
func SubmitQuiz() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(userControllers.SubmitRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		// Validate Name
		if strings.TrimSpace(reqData.Name) == "" {
			errors["name"] = "Name is required!"
		}

		// Validate Phone
		if reqData.Phone == "" || !isValidPhone(reqData.Phone) {
			errors["phone"] = "Invalid phone number!"
		}

		// Validate Language
		if strings.TrimSpace(reqData.Language) == "" {
			errors["language"] = "Language is required!"
		}

		// Validate Answers
		if len(reqData.Answers) == 0 {
			errors["answers"] = "At least one answer is required!"
		}

		if reqData.CompletionTime != nil && *reqData.CompletionTime < 0 {
			errors["completionTime"] = "Completion time must not be negative!"
		}

		// Respond with errors if any exist
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSubmission", reqData)
		return c.Next()
	}
}
