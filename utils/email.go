package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
)

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// SendEmail sends an HTML email using the ZeptoMail HTTP API
func SendEmail(to, subject, body string) error {
	apiURL := os.Getenv("ZEPTO_API_URL") // e.g. https://api.zeptomail.com/v1.1/email
	apiKey := os.Getenv("ZEPTO_API_KEY") // e.g. Zoho-enczapikey xxxxx
	from := os.Getenv("EMAIL_FROM")      // e.g. noreply@givehub.org
	toName := os.Getenv("EMAIL_TO_NAME")

	if apiURL == "" || apiKey == "" || from == "" {
		log.Println("Missing ZEPTO_API_URL, ZEPTO_API_KEY, or EMAIL_FROM")
		return fmt.Errorf("missing required email config")
	}

	payload := emailRequest{
		From: emailAddress{Address: from},
		To: []toRecipient{
			{
				Email: emailWithName{
					Address: to,
					Name:    toName,
				},
			},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal email payload: %v", err)
		return err
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("Failed to create request: %v", err)
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", apiKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		log.Printf("ZeptoMail returned status %s", resp.Status)
		return fmt.Errorf("zeptomail API error: %s", resp.Status)
	}

	log.Printf("Email successfully sent to %s", to)
	return nil
}

// NotifyCampaignApproved tells the owning NGO their campaign went live.
func NotifyCampaignApproved(ngoEmail, description string) {
	subject := "Your campaign has been approved"
	body := fmt.Sprintf("<p>Good news! Your campaign <strong>%s</strong> has been approved and is now visible to donors.</p>", description)
	if err := SendEmail(ngoEmail, subject, body); err != nil {
		log.Printf("Failed to send approval email to %s: %v", ngoEmail, err)
	}
}

// NotifyCampaignRejected tells the owning NGO to revise and resubmit, or that
// the campaign was removed after its final rejection.
func NotifyCampaignRejected(ngoEmail, description, reason string, deleted bool) {
	var subject, body string
	if deleted {
		subject = "Your campaign has been removed"
		body = fmt.Sprintf("<p>Your campaign <strong>%s</strong> was rejected a second time and has been removed.</p>", description)
	} else {
		subject = "Your campaign needs changes"
		body = fmt.Sprintf("<p>Your campaign <strong>%s</strong> was rejected: %s</p><p>Please revise and resubmit it from your dashboard.</p>", description, reason)
	}
	if err := SendEmail(ngoEmail, subject, body); err != nil {
		log.Printf("Failed to send rejection email to %s: %v", ngoEmail, err)
	}
}
