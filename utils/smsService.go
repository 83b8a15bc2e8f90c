package utils

import (
	"log"
	"quizserver/config"

	"github.com/go-resty/resty/v2"
)

// SendCertificateSMS notifies a participant that their certificate is ready.
// Best effort: failures are logged, never surfaced to the submission flow.
func SendCertificateSMS(phone, name, certificateNumber string) {
	cfg := config.AppConfig
	if cfg.SMSApiKey == "" {
		return
	}

	message := "Congratulations " + name + "! Your quiz completion certificate " + certificateNumber + " is ready for download."

	client := resty.New()
	resp, err := client.R().
		SetQueryParams(map[string]string{
			"authorization": cfg.SMSApiKey,
			"route":         "q",
			"message":       message,
			"numbers":       phone,
			"flash":         "0",
		}).
		Get(cfg.SMSApiUrl)

	if err != nil {
		log.Printf("Error while sending certificate SMS: %v", err)
		return
	}
	if resp.StatusCode() != 200 {
		log.Printf("Failed to send certificate SMS, response code: %d", resp.StatusCode())
		return
	}

	log.Println("Certificate SMS sent successfully to", phone)
}
