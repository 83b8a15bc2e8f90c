package userRoutes

import (
	"quizserver/controllers/userControllers"
	userValidators "quizserver/validators/user"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up participant-facing routes
func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/api/users")

	userGroup.Post("/", userValidators.SubmitQuiz(), userControllers.SubmitQuiz)
	userGroup.Get("/", userControllers.GetAllUsers)
	userGroup.Post("/check-existing", userControllers.CheckExisting)
	userGroup.Get("/phone/:phone", userControllers.GetUserByPhone)
	userGroup.Get("/:id", userControllers.GetUser)
}
