package adminControllers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"quizserver/config"
	"quizserver/database"
	"quizserver/middleware"
	"quizserver/models"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Login authenticates the configured admin account and returns a JWT.
func Login(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedLogin").(*struct {
		Username string `json:"username"`
		Password string `json:"password"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	cfg := config.AppConfig
	if cfg.AdminPasswordHash == "" {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Admin login is disabled!", nil)
	}

	if reqData.Username != cfg.AdminUsername ||
		bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(reqData.Password)) != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	token, err := middleware.GenerateAdminJWT(reqData.Username)
	if err != nil {
		log.Printf("Error generating admin token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to login!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful!", fiber.Map{
		"token": token,
	})
}

// GetUsers returns all users with submission details and dashboard
// statistics.
func GetUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.Database.Db.Preload("Submissions").Preload("Certificate").Order("updated_at desc").Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	dayAgo := time.Now().Add(-24 * time.Hour)

	totalSubmissions := 0
	multiAttempt := 0
	recent := 0
	languages := map[string]int{}

	result := make([]fiber.Map, len(users))
	for i, u := range users {
		count := len(u.Submissions)
		totalSubmissions += count
		if count > 1 {
			multiAttempt++
		}
		if u.Language != "" {
			languages[u.Language]++
		}

		latest := u.CreatedAt
		if u.LastSubmission != nil {
			latest = *u.LastSubmission
		}
		if latest.After(dayAgo) {
			recent++
		}

		entry := fiber.Map{
			"user":                u,
			"submissionCount":     count,
			"latestSubmission":    latest,
			"hasMultipleAttempts": count > 1,
			"hasCertificate":      u.Certificate != nil,
		}
		if u.Certificate != nil {
			entry["certificate"] = fiber.Map{
				"id":                u.Certificate.ID,
				"certificateNumber": u.Certificate.CertificateNumber,
				"filePath":          u.Certificate.FilePath,
				"issueDate":         u.Certificate.IssueDate,
			}
		}
		result[i] = entry
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", fiber.Map{
		"users": result,
		"statistics": fiber.Map{
			"totalUsers":                len(users),
			"totalSubmissions":          totalSubmissions,
			"usersWithMultipleAttempts": multiAttempt,
			"languageBreakdown":         languages,
			"recentSubmissions":         recent,
		},
	})
}

// GetUserDetail returns one user with full submission and answer history.
func GetUserDetail(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}

	var user models.User
	if err := database.Database.Db.Preload("Submissions.Answers").Preload("Certificate").First(&user, id).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", fiber.Map{
		"user":                user,
		"submissionCount":     len(user.Submissions),
		"hasMultipleAttempts": len(user.Submissions) > 1,
	})
}

// SearchUsers matches users by name, phone or school.
func SearchUsers(c *fiber.Ctx) error {
	term := c.Params("term")
	if term == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Search term is required!", nil)
	}

	pattern := "%" + term + "%"
	var users []models.User
	if err := database.Database.Db.Preload("Submissions").
		Where("name LIKE ? OR phone LIKE ? OR school LIKE ?", pattern, pattern, pattern).
		Order("updated_at desc").
		Limit(50).
		Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to search users!", nil)
	}

	result := make([]fiber.Map, len(users))
	for i, u := range users {
		result[i] = fiber.Map{
			"user":                u,
			"submissionCount":     len(u.Submissions),
			"hasMultipleAttempts": len(u.Submissions) > 1,
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("Found %d users matching %q.", len(users), term), result)
}

// GetSubmissions returns every submission with its owner and answers, newest
// first.
func GetSubmissions(c *fiber.Ctx) error {
	var submissions []models.Submission
	if err := database.Database.Db.Preload("Answers").Order("submitted_at desc").Find(&submissions).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch submissions!", nil)
	}

	result := make([]fiber.Map, len(submissions))
	for i, s := range submissions {
		var user models.User
		database.Database.Db.Select("id", "name", "phone", "school", "class", "language").First(&user, s.UserID)
		result[i] = fiber.Map{
			"submission": s,
			"user": fiber.Map{
				"id":       user.ID,
				"name":     user.Name,
				"phone":    user.Phone,
				"school":   user.School,
				"class":    user.Class,
				"language": user.Language,
			},
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "All submissions fetched successfully!", fiber.Map{
		"submissions": result,
		"count":       len(result),
	})
}

// GetStatistics returns platform-wide statistics for the dashboard.
func GetStatistics(c *fiber.Ctx) error {
	var users []models.User
	if err := database.Database.Db.Preload("Submissions").Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch statistics!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Statistics fetched successfully!", BuildStatistics(users))
}

// BuildStatistics computes the dashboard statistics block from users with
// preloaded submissions. Shared with the nightly digest job.
func BuildStatistics(users []models.User) fiber.Map {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	totalSubmissions := 0
	multiAttempt := 0
	singleAttempt := 0
	maxAttempts := 0
	todayCount, weekCount, monthCount := 0, 0, 0
	languages := map[string]int{}

	for _, u := range users {
		count := len(u.Submissions)
		totalSubmissions += count

		if u.Language != "" {
			languages[u.Language]++
		}

		if count > 1 {
			multiAttempt++
		} else if count == 1 {
			singleAttempt++
		}
		if count > maxAttempts {
			maxAttempts = count
		}

		latest := u.UpdatedAt
		if u.LastSubmission != nil {
			latest = *u.LastSubmission
		}
		if !latest.Before(today) {
			todayCount++
		}
		if !latest.Before(weekAgo) {
			weekCount++
		}
		if !latest.Before(monthAgo) {
			monthCount++
		}
	}

	avg := "0"
	if len(users) > 0 {
		avg = strconv.FormatFloat(float64(totalSubmissions)/float64(len(users)), 'f', 2, 64)
	}

	return fiber.Map{
		"overview": fiber.Map{
			"totalUsers":                len(users),
			"totalSubmissions":          totalSubmissions,
			"usersWithMultipleAttempts": multiAttempt,
			"averageAttemptsPerUser":    avg,
		},
		"languages": languages,
		"timeBasedStats": fiber.Map{
			"today":     todayCount,
			"thisWeek":  weekCount,
			"thisMonth": monthCount,
		},
		"submissionPatterns": fiber.Map{
			"singleAttempt":     singleAttempt,
			"multipleAttempts":  multiAttempt,
			"maxAttemptsByUser": maxAttempts,
		},
	}
}

// DeleteUser removes a user and cascades to submissions, answers and any
// certificate.
func DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Preload("Submissions").First(&user, id).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	submissionCount := len(user.Submissions)

	if err := db.Transaction(func(tx *gorm.DB) error {
		for _, s := range user.Submissions {
			if err := tx.Where("submission_id = ?", s.ID).Delete(&models.Answer{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Certificate{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	}); err != nil {
		log.Printf("Error deleting user %d: %v", id, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, fmt.Sprintf("User and %d submission(s) deleted successfully!", submissionCount), fiber.Map{
		"name":               user.Name,
		"phone":              user.Phone,
		"submissionsDeleted": submissionCount,
	})
}

// DeleteSubmission removes one submission and recounts the owner's attempts.
func DeleteSubmission(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	submissionID, err := c.ParamsInt("submissionId")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid submission id!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	var submission models.Submission
	if err := db.Preload("Answers").Where("id = ? AND user_id = ?", submissionID, userID).First(&submission).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Submission not found!", nil)
	}

	answersCount := len(submission.Answers)

	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("submission_id = ?", submission.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&submission).Error
	}); err != nil {
		log.Printf("Error deleting submission %d: %v", submissionID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete submission!", nil)
	}

	// Recount the user's attempts
	var remaining int64
	db.Model(&models.Submission{}).Where("user_id = ?", userID).Count(&remaining)

	var lastSubmission models.Submission
	updates := map[string]interface{}{"total_attempts": remaining, "last_submission": nil}
	if err := db.Where("user_id = ?", userID).Order("submitted_at desc").First(&lastSubmission).Error; err == nil {
		updates["last_submission"] = lastSubmission.SubmittedAt
	}
	db.Model(&user).Updates(updates)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Submission deleted successfully!", fiber.Map{
		"deletedSubmission": fiber.Map{
			"submittedAt":  submission.SubmittedAt,
			"answersCount": answersCount,
		},
		"remainingSubmissions": remaining,
	})
}

// ExportRequest selects what the export contains.
type ExportRequest struct {
	Format  string        `json:"format"` // json or csv
	Type    string        `json:"type"`   // users or submissions
	Filters ExportFilters `json:"filters"`
}

// ExportFilters narrows the exported rows.
type ExportFilters struct {
	Language string `json:"language"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
}

// Export prepares users or submissions for download, either as JSON rows or
// as a CSV attachment.
func Export(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedExport").(*ExportRequest)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	query := database.Database.Db.Preload("Submissions.Answers")
	if reqData.Filters.Language != "" && reqData.Filters.Language != "all" {
		query = query.Where("language = ?", reqData.Filters.Language)
	}
	if reqData.Filters.DateFrom != "" {
		if from, err := time.Parse("2006-01-02", reqData.Filters.DateFrom); err == nil {
			query = query.Where("created_at >= ?", from)
		}
	}
	if reqData.Filters.DateTo != "" {
		if to, err := time.Parse("2006-01-02", reqData.Filters.DateTo); err == nil {
			query = query.Where("created_at <= ?", to.AddDate(0, 0, 1))
		}
	}

	var users []models.User
	if err := query.Order("updated_at desc").Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to prepare export!", nil)
	}

	header, rows := buildExportRows(reqData.Type, users)

	if reqData.Format == "csv" {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write(header)
		for _, row := range rows {
			_ = w.Write(row)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to prepare export!", nil)
		}

		fileName := fmt.Sprintf("export_%s_%s.csv", reqData.Type, time.Now().Format("20060102150405"))
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
		return c.Send(buf.Bytes())
	}

	data := make([]fiber.Map, len(rows))
	for i, row := range rows {
		entry := fiber.Map{}
		for j, col := range header {
			entry[col] = row[j]
		}
		data[i] = entry
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Export data prepared successfully!", fiber.Map{
		"data":        data,
		"count":       len(data),
		"type":        reqData.Type,
		"format":      reqData.Format,
		"generatedAt": time.Now().Format(time.RFC3339),
	})
}

func buildExportRows(exportType string, users []models.User) ([]string, [][]string) {
	if exportType == "submissions" {
		header := []string{"userName", "userPhone", "userSchool", "userClass", "userLanguage", "submissionNumber", "totalSubmissions", "answersCount", "score", "percentage", "submittedAt", "sessionId", "completionTime"}
		var rows [][]string
		for _, u := range users {
			for i, s := range u.Submissions {
				completion := ""
				if s.CompletionTime != nil {
					completion = strconv.Itoa(*s.CompletionTime)
				}
				rows = append(rows, []string{
					u.Name,
					u.Phone,
					u.School,
					u.Class,
					u.Language,
					strconv.Itoa(i + 1),
					strconv.Itoa(len(u.Submissions)),
					strconv.Itoa(len(s.Answers)),
					strconv.Itoa(s.Score),
					strconv.FormatFloat(s.Percentage, 'f', 2, 64),
					s.SubmittedAt.Format(time.RFC3339),
					s.SessionID,
					completion,
				})
			}
		}
		return header, rows
	}

	header := []string{"name", "phone", "school", "class", "language", "totalAttempts", "latestSubmission", "firstSubmission", "hasMultipleAttempts"}
	rows := make([][]string, len(users))
	for i, u := range users {
		latest := u.UpdatedAt
		if u.LastSubmission != nil {
			latest = *u.LastSubmission
		}
		rows[i] = []string{
			u.Name,
			u.Phone,
			u.School,
			u.Class,
			u.Language,
			strconv.Itoa(u.TotalAttempts),
			latest.Format(time.RFC3339),
			u.CreatedAt.Format(time.RFC3339),
			strconv.FormatBool(len(u.Submissions) > 1),
		}
	}
	return header, rows
}
