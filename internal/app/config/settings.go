package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// AlertSettings is the alert settings file written by the desktop client.
// It is only ever read here.
type AlertSettings struct {
	MaxTempThreshold *float64 `json:"max_temp_threshold"`
	MinTempThreshold *float64 `json:"min_temp_threshold"`
	Recipient        string   `json:"recipient"`
	Sender           string   `json:"sender"`
	SenderPassword   string   `json:"sender_password"`
}

// UnmarshalJSON accepts both the short and the *_email key spellings.
func (s *AlertSettings) UnmarshalJSON(data []byte) error {
	var raw struct {
		MaxTempThreshold *float64 `json:"max_temp_threshold"`
		MinTempThreshold *float64 `json:"min_temp_threshold"`
		Recipient        string   `json:"recipient"`
		RecipientEmail   string   `json:"recipient_email"`
		Sender           string   `json:"sender"`
		SenderEmail      string   `json:"sender_email"`
		SenderPassword   string   `json:"sender_password"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = AlertSettings{
		MaxTempThreshold: raw.MaxTempThreshold,
		MinTempThreshold: raw.MinTempThreshold,
		Recipient:        firstNonEmpty(raw.Recipient, raw.RecipientEmail),
		Sender:           firstNonEmpty(raw.Sender, raw.SenderEmail),
		SenderPassword:   raw.SenderPassword,
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadAlertSettings reads the settings file. A missing file is reported
// through the returned error (os.ErrNotExist) so callers can fall back.
func LoadAlertSettings(path string) (AlertSettings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return AlertSettings{}, err
	}
	var s AlertSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return AlertSettings{}, fmt.Errorf("decode alert settings %s: %w", path, err)
	}
	return s, nil
}

// ApplyAlertSettings overlays thresholds and mail credentials from s. A
// missing threshold in s disables that bound.
func (c *Config) ApplyAlertSettings(s AlertSettings) {
	c.Alerts.Max = s.MaxTempThreshold
	c.Alerts.Min = s.MinTempThreshold
	if s.Recipient != "" {
		c.Notifiers.SMTP.Recipient = s.Recipient
	}
	if s.Sender != "" {
		c.Notifiers.SMTP.Sender = s.Sender
	}
	if s.SenderPassword != "" {
		c.Notifiers.SMTP.Password = s.SenderPassword
	}
}

// MailReady reports whether SMTP delivery has everything it needs.
func (c *Config) MailReady() bool {
	s := c.Notifiers.SMTP
	return s.Recipient != "" && s.Sender != "" && s.Password != ""
}
