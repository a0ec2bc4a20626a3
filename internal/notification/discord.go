package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// SendDiscordErrorNotification posts an error embed to the webhook. A
// blank webhook URL disables the notification.
func SendDiscordErrorNotification(webhookURL, errorMessage string) error {
	if webhookURL == "" {
		return nil
	}
	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "🚨 Burn analysis failed",
				Description: errorMessage,
				Color:       16711680, // Red color
			},
		},
	}
	return send(webhookURL, message)
}

// SendDiscordSuccessNotification posts a success embed to the webhook. A
// blank webhook URL disables the notification.
func SendDiscordSuccessNotification(webhookURL, successMessage string) error {
	if webhookURL == "" {
		return nil
	}
	message := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title:       "✅ Burn analysis complete",
				Description: successMessage,
				Color:       65280, // Green color
			},
		},
	}
	return send(webhookURL, message)
}

func send(webhookURL string, message DiscordMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
