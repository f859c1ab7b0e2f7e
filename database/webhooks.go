package database

import (
	"time"
)

// PublishWebhook is a configured delivery target for approved drafts.
// Filters narrow which drafts a target receives: an empty filter matches
// everything.
//
// Key Fields:
//   - Tracks: comma/JSON list of tracks the target accepts (traffic, research)
//   - Labels: substring filter on draft labels
//   - MaxRiskScore: drafts above this routing risk are withheld
//   - RetryCount/RetryDelaySeconds: bounded delivery retry policy
type PublishWebhook struct {
	ID                int        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string     `gorm:"size:100;not null" json:"name"`
	URL               string     `gorm:"size:500;not null" json:"url"`
	Method            string     `gorm:"size:10;default:POST" json:"method"`
	AuthType          string     `gorm:"size:20" json:"auth_type"` // BEARER or custom header
	AuthHeader        string     `gorm:"size:100" json:"auth_header"`
	AuthValue         string     `gorm:"size:500" json:"auth_value"`
	Tracks            string     `gorm:"size:100" json:"tracks"`
	Labels            string     `gorm:"size:500" json:"labels"`
	MaxRiskScore      *float64   `json:"max_risk_score,omitempty"`
	RetryCount        int        `gorm:"default:3" json:"retry_count"`
	RetryDelaySeconds int        `gorm:"default:5" json:"retry_delay_seconds"`
	Active            bool       `gorm:"default:true;index" json:"active"`
	CreatedAt         time.Time  `json:"created_at"`
	LastTriggeredAt   *time.Time `json:"last_triggered_at,omitempty"`
}

// TableName specifies the table name for PublishWebhook
func (PublishWebhook) TableName() string {
	return "publish_webhooks"
}

// WebhookDelivery records one delivery attempt outcome for audit.
type WebhookDelivery struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DeliveryID     string    `gorm:"size:36;index" json:"delivery_id"`
	WebhookID      int       `gorm:"index;not null" json:"webhook_id"`
	DraftID        string    `gorm:"size:64;index;not null" json:"draft_id"`
	TriggeredAt    time.Time `gorm:"not null" json:"triggered_at"`
	Status         string    `gorm:"size:20;not null" json:"status"` // SUCCESS, FAILED
	HTTPStatusCode *int      `json:"http_status_code,omitempty"`
	ErrorMessage   string    `gorm:"size:500" json:"error_message,omitempty"`
	RetryAttempt   int       `json:"retry_attempt"`
}

// TableName specifies the table name for WebhookDelivery
func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}

// WebhookRepository handles webhook configuration and delivery logs.
type WebhookRepository struct {
	db *Database
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *Database) *WebhookRepository {
	return &WebhookRepository{db: db}
}

// GetActiveWebhooks returns all active publish webhooks
func (r *WebhookRepository) GetActiveWebhooks() ([]PublishWebhook, error) {
	var hooks []PublishWebhook
	err := r.db.db.Where("active = ?", true).Order("id").Find(&hooks).Error
	if err != nil {
		return nil, WrapDBError("GetActiveWebhooks", err)
	}
	return hooks, nil
}

// GetWebhooks returns all configured webhooks
func (r *WebhookRepository) GetWebhooks() ([]PublishWebhook, error) {
	var hooks []PublishWebhook
	err := r.db.db.Order("id").Find(&hooks).Error
	if err != nil {
		return nil, WrapDBError("GetWebhooks", err)
	}
	return hooks, nil
}

// CreateWebhook inserts a new webhook configuration
func (r *WebhookRepository) CreateWebhook(hook *PublishWebhook) error {
	hook.CreatedAt = time.Now()
	return WrapDBError("CreateWebhook", r.db.db.Create(hook).Error)
}

// updateColumns lists every editable webhook column explicitly. Struct
// updates would skip zero values, making it impossible to deactivate a
// hook or clear a filter.
func updateColumns(hook *PublishWebhook) map[string]interface{} {
	return map[string]interface{}{
		"name":                hook.Name,
		"url":                 hook.URL,
		"method":              hook.Method,
		"auth_type":           hook.AuthType,
		"auth_header":         hook.AuthHeader,
		"auth_value":          hook.AuthValue,
		"tracks":              hook.Tracks,
		"labels":              hook.Labels,
		"max_risk_score":      hook.MaxRiskScore,
		"retry_count":         hook.RetryCount,
		"retry_delay_seconds": hook.RetryDelaySeconds,
		"active":              hook.Active,
	}
}

// UpdateWebhook updates an existing webhook configuration
func (r *WebhookRepository) UpdateWebhook(hook *PublishWebhook) error {
	result := r.db.db.Model(&PublishWebhook{}).Where("id = ?", hook.ID).Updates(updateColumns(hook))
	if result.Error != nil {
		return WrapDBError("UpdateWebhook", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundErrorWithID("webhook", hook.ID)
	}
	return nil
}

// DeleteWebhook removes a webhook configuration
func (r *WebhookRepository) DeleteWebhook(id int) error {
	result := r.db.db.Delete(&PublishWebhook{}, id)
	if result.Error != nil {
		return WrapDBError("DeleteWebhook", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundErrorWithID("webhook", id)
	}
	return nil
}

// SaveDelivery records a delivery attempt
func (r *WebhookRepository) SaveDelivery(entry *WebhookDelivery) error {
	return WrapDBError("SaveDelivery", r.db.db.Create(entry).Error)
}

// TouchWebhook updates the last-triggered timestamp
func (r *WebhookRepository) TouchWebhook(id int) error {
	now := time.Now()
	return WrapDBError("TouchWebhook",
		r.db.db.Model(&PublishWebhook{}).Where("id = ?", id).Update("last_triggered_at", &now).Error)
}
