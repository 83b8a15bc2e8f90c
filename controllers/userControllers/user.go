package userControllers

import (
	"log"
	"quizserver/database"
	"quizserver/middleware"
	"quizserver/models"
	certservice "quizserver/services/certificate"
	"quizserver/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var certEngine *certservice.Engine

// Init wires the certificate engine used by the submission flow.
func Init(engine *certservice.Engine) {
	certEngine = engine
}

// AnswerInput is one answered question in a quiz submission.
type AnswerInput struct {
	QuestionID int    `json:"questionId"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
}

// SubmitRequest is the quiz submission payload.
type SubmitRequest struct {
	Name           string        `json:"name"`
	Phone          string        `json:"phone"`
	School         string        `json:"school"`
	Class          string        `json:"class"`
	Language       string        `json:"language"`
	State          string        `json:"state"`
	District       string        `json:"district"`
	CompletionTime *int          `json:"completionTime"`
	Answers        []AnswerInput `json:"answers"`
}

// SubmitQuiz records a completed attempt, creating the user on their first
// submission and appending a submission otherwise. On the second attempt the
// certificate engine is invoked as a best-effort side effect: its failure
// never fails the submission.
func SubmitQuiz(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSubmission").(*SubmitRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db
	sessionID := uuid.NewString()
	now := time.Now()

	var user models.User
	isNewUser := false
	if err := db.Where("phone = ?", reqData.Phone).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("Error looking up user by phone: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save submission!", nil)
		}
		isNewUser = true
		user = models.User{
			Name:     reqData.Name,
			Phone:    reqData.Phone,
			School:   reqData.School,
			Class:    reqData.Class,
			Language: reqData.Language,
			State:    reqData.State,
			District: reqData.District,
		}
		if err := db.Create(&user).Error; err != nil {
			log.Printf("Error creating user: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save submission!", nil)
		}
	}

	// Score the attempt
	score := 0
	totalQuestions := len(reqData.Answers)
	for _, ans := range reqData.Answers {
		if ans.IsCorrect {
			score++
		}
	}
	percentage := 0.0
	if totalQuestions > 0 {
		percentage = float64(score) / float64(totalQuestions) * 100
	}

	attemptNumber := user.TotalAttempts + 1

	submission := models.Submission{
		UserID:         user.ID,
		AttemptNumber:  attemptNumber,
		Score:          score,
		TotalQuestions: totalQuestions,
		Percentage:     percentage,
		CompletionTime: reqData.CompletionTime,
		SessionID:      sessionID,
		SubmittedAt:    now,
	}
	if err := db.Create(&submission).Error; err != nil {
		log.Printf("Error saving submission: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save submission!", nil)
	}

	for _, ans := range reqData.Answers {
		answer := models.Answer{
			SubmissionID: submission.ID,
			QuestionID:   ans.QuestionID,
			Question:     ans.Question,
			Answer:       ans.Answer,
			IsCorrect:    ans.IsCorrect,
		}
		if err := db.Create(&answer).Error; err != nil {
			log.Printf("Error saving answer: %v", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save submission!", nil)
		}
	}

	// Refresh profile fields on repeat submissions
	updates := map[string]interface{}{
		"name":            reqData.Name,
		"school":          reqData.School,
		"class":           reqData.Class,
		"language":        reqData.Language,
		"total_attempts":  attemptNumber,
		"last_submission": now,
	}
	if err := db.Model(&user).Updates(updates).Error; err != nil {
		log.Printf("Error updating user stats: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save submission!", nil)
	}

	attemptsRemaining := certservice.MinAttempts - attemptNumber
	if attemptsRemaining < 0 {
		attemptsRemaining = 0
	}

	response := fiber.Map{
		"id":                user.ID,
		"attemptNumber":     attemptNumber,
		"sessionId":         sessionID,
		"isNewUser":         isNewUser,
		"attemptsRemaining": attemptsRemaining,
		"canEarnCertificate": attemptNumber < certservice.MinAttempts,
		"submission": fiber.Map{
			"id":             submission.ID,
			"attemptNumber":  attemptNumber,
			"score":          score,
			"totalQuestions": totalQuestions,
			"percentage":     percentage,
			"completionTime": submission.CompletionTime,
		},
	}

	// Certificate issuance on the second attempt. Best effort only.
	if attemptNumber == certservice.MinAttempts && certEngine != nil {
		var history []models.Submission
		if err := db.Where("user_id = ?", user.ID).Order("submitted_at asc").Find(&history).Error; err != nil {
			log.Printf("Error loading submission history for certificate: %v", err)
		} else {
			outcome, certErr := certEngine.EnsureCertificate(user.ID, certservice.AttemptsFromSubmissions(history))
			switch {
			case certErr != nil:
				log.Printf("Certificate generation error for user %d: %v", user.ID, certErr)
				response["certificateMessage"] = "Unable to generate certificate. Please contact support."
			case outcome.Status == certservice.StatusGenerated:
				response["certificate"] = certificateSummary(outcome.Certificate)
				response["certificateMessage"] = "Congratulations! Your certificate has been generated."
				go utils.SendCertificateSMS(user.Phone, user.Name, outcome.Certificate.CertificateNumber)
			case outcome.Status == certservice.StatusExists:
				response["certificate"] = certificateSummary(outcome.Certificate)
				response["certificateMessage"] = "Your certificate was already generated."
			}
		}
	}

	message := "Welcome! Your first submission saved successfully"
	if !isNewUser {
		message = "New submission added successfully!"
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, message, response)
}

func certificateSummary(cert *models.Certificate) fiber.Map {
	return fiber.Map{
		"id":                cert.ID,
		"certificateNumber": cert.CertificateNumber,
		"downloadUrl":       cert.FilePath,
		"issueDate":         cert.IssueDate,
	}
}

// GetAllUsers returns all users with submission statistics.
func GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.Database.Db.Preload("Submissions").Order("updated_at desc").Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	result := make([]fiber.Map, len(users))
	for i, u := range users {
		result[i] = fiber.Map{
			"user":            u,
			"submissionCount": len(u.Submissions),
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", result)
}

// GetUser returns a user by id with all submissions and answers.
func GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}

	var user models.User
	if err := database.Database.Db.Preload("Submissions.Answers").First(&user, id).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", fiber.Map{
		"user":            user,
		"submissionCount": len(user.Submissions),
	})
}

// GetUserByPhone returns a user by phone number with all submissions.
func GetUserByPhone(c *fiber.Ctx) error {
	phone := c.Params("phone")

	var user models.User
	if err := database.Database.Db.Preload("Submissions.Answers").Where("phone = ?", phone).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", fiber.Map{
		"user":            user,
		"submissionCount": len(user.Submissions),
	})
}

// CheckExisting reports whether a phone number already belongs to a user so
// the client can greet returning participants.
func CheckExisting(c *fiber.Ctx) error {
	reqData := new(struct {
		Phone string `json:"phone"`
	})
	if err := c.BodyParser(reqData); err != nil || reqData.Phone == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Phone number is required!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("phone = ?", reqData.Phone).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "New user - ready for first attempt!", fiber.Map{
			"exists": false,
		})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Existing user found.", fiber.Map{
		"exists": true,
		"user": fiber.Map{
			"name":           user.Name,
			"phone":          user.Phone,
			"school":         user.School,
			"class":          user.Class,
			"language":       user.Language,
			"totalAttempts":  user.TotalAttempts,
			"lastSubmission": user.LastSubmission,
		},
	})
}
