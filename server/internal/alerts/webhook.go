package alerts

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic"

	"github.com/qubicdash/qubicdash/server/internal/config"
)

// deliver sends a to every webhook target. Errors are logged only.
func (e *Engine) deliver(webhooks []config.WebhookConfig, a *Alert) {
	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var payload any
		switch wh.Type {
		case "slack":
			payload = slackPayload(a)
		case "teams":
			payload = teamsPayload(a)
		case "http":
			payload = map[string]any{"alert": a}
		default:
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := e.post(url, payload); err != nil {
			slog.Error("alerts: webhook delivery failed", "type", wh.Type, "rule", a.RuleName, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered", "type", wh.Type, "rule", a.RuleName, "state", a.State)
	}
}

func slackPayload(a *Alert) map[string]string {
	return map[string]string{
		"text": fmt.Sprintf("*%s* %s%s", severityLabel(a.Severity), a.Message, stateSuffix(a)),
	}
}

func teamsPayload(a *Alert) map[string]any {
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("qubicdash alert: %s", a.RuleName),
		"text":       a.Message + stateSuffix(a),
	}
}

func stateSuffix(a *Alert) string {
	if a.State == StateResolved {
		return " (resolved)"
	}
	return ""
}

func (e *Engine) post(url string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
