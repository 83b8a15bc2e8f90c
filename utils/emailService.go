package utils

import (
	"fmt"
	"net/smtp"
	"quizserver/config"
	"strings"
)

// SendEmail sends an HTML email through the configured SMTP account.
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: Quiz Platform <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// SendStatsDigest emails the nightly platform summary to the admin.
func SendStatsDigest(totalUsers, totalSubmissions, certificates int) error {
	cfg := config.AppConfig
	if cfg.EmailSender == "" || cfg.AdminEmail == "" {
		return nil
	}

	body := fmt.Sprintf(`
		<html>
			<body style="font-family: Arial, sans-serif; background-color: #f4f4f4; padding: 20px;">
				<div style="max-width: 500px; margin: auto; background-color: #ffffff; border-radius: 8px; padding: 30px;">
					<h2 style="color: #333333; text-align: center;">Daily Quiz Platform Summary</h2>
					<p style="font-size: 16px; color: #555555;">Total participants: <b>%d</b></p>
					<p style="font-size: 16px; color: #555555;">Total submissions: <b>%d</b></p>
					<p style="font-size: 16px; color: #555555;">Certificates issued: <b>%d</b></p>
				</div>
			</body>
		</html>
	`, totalUsers, totalSubmissions, certificates)

	return SendEmail([]string{cfg.AdminEmail}, "Daily Quiz Platform Summary", body)
}
