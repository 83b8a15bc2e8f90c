package certificateControllers

import (
	"log"
	"quizserver/database"
	"quizserver/middleware"
	"quizserver/models"
	certservice "quizserver/services/certificate"

	"github.com/gofiber/fiber/v2"
)

var certEngine *certservice.Engine

// Init wires the certificate engine used by the API handlers.
func Init(engine *certservice.Engine) {
	certEngine = engine
}

// GenerateCertificate issues (or returns) a user's certificate. The request
// body may carry the attempt data; when absent it is re-derived from stored
// submissions.
func GenerateCertificate(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User ID is required!", nil)
	}

	reqData := new(struct {
		Submissions []certservice.AttemptScore `json:"submissions"`
	})
	// Body is optional; ignore parse errors for empty bodies.
	_ = c.BodyParser(reqData)

	attempts := reqData.Submissions
	if len(attempts) == 0 {
		var submissions []models.Submission
		if err := database.Database.Db.Preload("Answers").Where("user_id = ?", userID).Order("submitted_at asc").Find(&submissions).Error; err != nil {
			log.Printf("Error loading submissions for user %d: %v", userID, err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Certificate unavailable, try again later.", nil)
		}
		attempts = certservice.AttemptsFromSubmissions(submissions)
	}

	outcome, err := certEngine.EnsureCertificate(uint(userID), attempts)
	if err != nil {
		log.Printf("Certificate generation error for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Certificate unavailable, try again later.", nil)
	}

	switch outcome.Status {
	case certservice.StatusGenerated:
		return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate generated successfully!", outcome.Certificate)
	case certservice.StatusExists:
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate already exists.", outcome.Certificate)
	case certservice.StatusNoUser:
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	default:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User needs to complete 2 attempts to get certificate.", fiber.Map{
			"attemptsCompleted": outcome.AttemptsCompleted,
		})
	}
}

// GetUserCertificate returns the certificate for a user, if issued.
func GetUserCertificate(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User ID is required!", nil)
	}

	cert, err := certEngine.CertificateByUser(uint(userID))
	if err != nil {
		log.Printf("Certificate lookup error for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate!", nil)
	}
	if cert == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found. Complete 2 attempts to receive your certificate.", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", cert)
}

// CheckEligibility reports submission count and certificate state for a user.
func CheckEligibility(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "User ID is required!", nil)
	}

	info, err := certEngine.Eligibility(uint(userID))
	if err != nil {
		log.Printf("Eligibility check error for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to check eligibility!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Eligibility checked.", info)
}

// GetAllCertificates returns every issued certificate, newest first. Admin
// only.
func GetAllCertificates(c *fiber.Ctx) error {
	var certificates []models.Certificate
	if err := database.Database.Db.Order("created_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": certificates,
		"total":        len(certificates),
	})
}
