package certificateRoutes

import (
	"quizserver/controllers/certificateControllers"
	"quizserver/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupCertificateRoutes sets up certificate generation and lookup routes
func SetupCertificateRoutes(app *fiber.App) {
	certGroup := app.Group("/api/certificates")

	certGroup.Post("/generate/:userId", certificateControllers.GenerateCertificate)
	certGroup.Get("/user/:userId", certificateControllers.GetUserCertificate)
	certGroup.Get("/check-eligibility/:userId", certificateControllers.CheckEligibility)
	certGroup.Get("/admin/all", middleware.AdminJWT, certificateControllers.GetAllCertificates)
}
