package utils

import (
	"log"
	"quizserver/database"
	"quizserver/models"
	"time"

	"github.com/robfig/cron/v3"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[STATS-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// reconcileAttemptCounts repairs users.total_attempts against the actual
// submission rows. Counts can drift after manual submission deletes.
func reconcileAttemptCounts() {
	db := database.Database.Db

	var users []models.User
	if err := db.Find(&users).Error; err != nil {
		logScheduler("Error fetching users: " + err.Error())
		return
	}

	fixed := 0
	for _, user := range users {
		var count int64
		if err := db.Model(&models.Submission{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
			logScheduler("Error counting submissions for user: " + err.Error())
			continue
		}
		if int(count) != user.TotalAttempts {
			if err := db.Model(&user).Update("total_attempts", count).Error; err != nil {
				logScheduler("Error updating attempt count: " + err.Error())
				continue
			}
			fixed++
		}
	}

	if fixed > 0 {
		logScheduler("Reconciled attempt counts for users")
	}
}

// emailNightlyDigest sends the platform summary to the admin.
func emailNightlyDigest() {
	db := database.Database.Db

	var users, submissions, certificates int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Submission{}).Count(&submissions)
	db.Model(&models.Certificate{}).Count(&certificates)

	if err := SendStatsDigest(int(users), int(submissions), int(certificates)); err != nil {
		logScheduler("Error sending stats digest: " + err.Error())
		return
	}
	logScheduler("Nightly digest complete")
}

// StartStatsScheduler runs the nightly maintenance job at 00:30.
func StartStatsScheduler() {
	c := cron.New()

	_, err := c.AddFunc("30 0 * * *", func() {
		logScheduler("Running nightly maintenance...")
		reconcileAttemptCounts()
		emailNightlyDigest()
	})
	if err != nil {
		log.Printf("Failed to schedule stats job: %v", err)
		return
	}

	c.Start()
	logScheduler("Stats scheduler started")
}
