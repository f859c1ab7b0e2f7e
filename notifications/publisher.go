// Package notifications delivers approved draft content to configured
// publish webhooks. Delivery is strictly best-effort: failures are
// logged and recorded, never propagated back into the review workflow.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"signal-desk/database"
	"signal-desk/eventlog"
	"signal-desk/models"
)

// Publisher fans approved drafts out to active publish webhooks.
type Publisher struct {
	repo   *database.WebhookRepository // nil disables delivery
	events *eventlog.Log
	client *http.Client
}

// NewPublisher creates the publish channel. A nil repository disables
// delivery entirely.
func NewPublisher(repo *database.WebhookRepository, events *eventlog.Log) *Publisher {
	return &Publisher{
		repo:   repo,
		events: events,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// publishPayload is the wire body posted to each webhook target.
type publishPayload struct {
	DraftID     string    `json:"draft_id"`
	SignalID    string    `json:"signal_id"`
	Topic       string    `json:"topic"`
	Track       string    `json:"track"`
	Content     string    `json:"content"`
	ThreadItems []string  `json:"thread_items,omitempty"`
	Labels      []string  `json:"labels"`
	RiskScore   float64   `json:"risk_score"`
	PublishedAt time.Time `json:"published_at"`
}

// PublishDraft delivers one approved draft to every active webhook whose
// filters match. Runs deliveries sequentially with the per-target retry
// policy; the caller is never blocked on failures beyond the HTTP
// timeouts.
func (p *Publisher) PublishDraft(ctx context.Context, draft models.Draft, signal models.Signal) {
	if p.repo == nil {
		return
	}

	hooks, err := p.repo.GetActiveWebhooks()
	if err != nil {
		p.events.Appendf("[publish] ❌ webhook lookup failed: %v", err)
		return
	}
	if len(hooks) == 0 {
		return
	}

	publishedAt := time.Now()
	if draft.PublishedAt != nil {
		publishedAt = *draft.PublishedAt
	}
	payload := publishPayload{
		DraftID:     draft.DraftID,
		SignalID:    draft.SignalID,
		Topic:       signal.Topic,
		Track:       string(draft.Track),
		Content:     draft.Content,
		ThreadItems: draft.ThreadItems,
		Labels:      draft.Labels,
		RiskScore:   signal.Routing.RiskScore,
		PublishedAt: publishedAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		p.events.Appendf("[publish] ❌ payload marshal failed for %s: %v", draft.DraftID, err)
		return
	}

	delivered := 0
	for i := range hooks {
		if !MatchesFilters(&hooks[i], draft, signal) {
			continue
		}
		if p.deliver(ctx, &hooks[i], draft.DraftID, body) {
			delivered++
		}
	}
	p.events.Appendf("[publish] draft %s delivered to %d/%d targets", draft.DraftID, delivered, len(hooks))
}

// MatchesFilters reports whether a webhook's filters accept the draft.
// Empty filters match everything.
func MatchesFilters(hook *database.PublishWebhook, draft models.Draft, signal models.Signal) bool {
	if hook.Tracks != "" && !containsToken(hook.Tracks, string(draft.Track)) {
		return false
	}
	if hook.Labels != "" {
		matched := false
		for _, label := range draft.Labels {
			if containsToken(hook.Labels, label) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if hook.MaxRiskScore != nil && signal.Routing.RiskScore > *hook.MaxRiskScore {
		return false
	}
	return true
}

// containsToken checks a comma-separated filter list for a value,
// trimming whitespace and ignoring case.
func containsToken(list, value string) bool {
	for _, token := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(token), value) {
			return true
		}
	}
	return false
}

// deliver posts the payload to one target with the target's bounded
// retry policy and records every attempt in the delivery log.
func (p *Publisher) deliver(ctx context.Context, hook *database.PublishWebhook, draftID string, body []byte) bool {
	deliveryID := uuid.NewString()
	attempts := hook.RetryCount
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(hook.RetryDelaySeconds) * time.Second

	for attempt := 1; attempt <= attempts; attempt++ {
		statusCode, err := p.post(ctx, hook, body)

		entry := &database.WebhookDelivery{
			DeliveryID:   deliveryID,
			WebhookID:    hook.ID,
			DraftID:      draftID,
			TriggeredAt:  time.Now(),
			RetryAttempt: attempt - 1,
		}
		if statusCode > 0 {
			entry.HTTPStatusCode = &statusCode
		}

		if err == nil && statusCode >= 200 && statusCode < 300 {
			entry.Status = "SUCCESS"
			if logErr := p.repo.SaveDelivery(entry); logErr != nil {
				p.events.Appendf("[publish] delivery log write failed: %v", logErr)
			}
			if touchErr := p.repo.TouchWebhook(hook.ID); touchErr != nil {
				p.events.Appendf("[publish] webhook touch failed: %v", touchErr)
			}
			return true
		}

		entry.Status = "FAILED"
		if err != nil {
			entry.ErrorMessage = err.Error()
		} else {
			entry.ErrorMessage = fmt.Sprintf("unexpected status %d", statusCode)
		}
		if logErr := p.repo.SaveDelivery(entry); logErr != nil {
			p.events.Appendf("[publish] delivery log write failed: %v", logErr)
		}

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(delay):
			}
		}
	}

	p.events.Appendf("[publish] ❌ webhook %s exhausted retries for draft %s", hook.Name, draftID)
	return false
}

func (p *Publisher) post(ctx context.Context, hook *database.PublishWebhook, body []byte) (int, error) {
	method := hook.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, hook.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	switch hook.AuthType {
	case "BEARER":
		req.Header.Set("Authorization", "Bearer "+hook.AuthValue)
	default:
		if hook.AuthHeader != "" {
			req.Header.Set(hook.AuthHeader, hook.AuthValue)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
