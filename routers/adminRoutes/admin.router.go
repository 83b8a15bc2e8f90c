package adminRoutes

import (
	"quizserver/controllers/adminControllers"
	"quizserver/middleware"
	adminValidators "quizserver/validators/admin"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up the admin dashboard routes
func SetupAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/api/admin")

	adminGroup.Post("/login", adminValidators.Login(), adminControllers.Login)

	adminGroup.Get("/users", middleware.AdminJWT, adminControllers.GetUsers)
	adminGroup.Get("/users/search/:term", middleware.AdminJWT, adminControllers.SearchUsers)
	adminGroup.Get("/users/:id", middleware.AdminJWT, adminControllers.GetUserDetail)
	adminGroup.Delete("/users/:id", middleware.AdminJWT, adminControllers.DeleteUser)
	adminGroup.Delete("/users/:userId/submissions/:submissionId", middleware.AdminJWT, adminControllers.DeleteSubmission)
	adminGroup.Get("/submissions", middleware.AdminJWT, adminControllers.GetSubmissions)
	adminGroup.Get("/statistics", middleware.AdminJWT, adminControllers.GetStatistics)
	adminGroup.Post("/export", middleware.AdminJWT, adminValidators.Export(), adminControllers.Export)
}
