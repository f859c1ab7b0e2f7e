package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"signal-desk/models"
)

// systemMessage is the default system message for the curation analyst
const systemMessage = "You are a meticulous crypto/AI market intelligence analyst. Base every answer strictly on the provided input; never invent facts, sources, or numbers. Respond with a single JSON object matching the requested schema, no prose outside the JSON."

// stageTimeout bounds a single oracle call. There is no retry policy at
// this boundary: a call either resolves or the pipeline invocation fails.
const stageTimeout = 45 * time.Second

// Client is an OpenAI-compatible oracle client
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewClient creates a new oracle client
func NewClient(endpoint, apiKey, model string) *Client {
	// Configure custom HTTP transport for connection pooling
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &http.Client{
			Transport: transport,
			// No client timeout - per-call contexts control deadlines
		},
	}
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// ChatRequest represents an OpenAI chat completion request
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatResponse represents an OpenAI chat completion response
type ChatResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int     `json:"index"`
		Message Message `json:"message"`
		Finish  string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// ChatCompletion sends a chat completion request
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.4,
		MaxTokens:   2000,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// completeJSON runs one prompt with the analyst system message and decodes
// the fenced/bare JSON object in the reply into dest.
func (c *Client) completeJSON(ctx context.Context, stage, prompt string, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()

	messages := []Message{
		{Role: "system", Content: systemMessage},
		{Role: "user", Content: prompt},
	}

	reply, err := c.ChatCompletion(ctx, messages)
	if err != nil {
		return fmt.Errorf("%s stage failed: %w", stage, err)
	}

	if err := DecodeJSONReply(reply, dest); err != nil {
		return fmt.Errorf("%s stage returned malformed output: %w", stage, err)
	}
	return nil
}

// completeText runs one prompt and returns the raw reply text.
func (c *Client) completeText(ctx context.Context, stage, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()

	messages := []Message{
		{Role: "system", Content: systemMessage},
		{Role: "user", Content: prompt},
	}

	reply, err := c.ChatCompletion(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%s stage failed: %w", stage, err)
	}
	return reply, nil
}

// Classify implements Oracle.
func (c *Client) Classify(ctx context.Context, rawText string) (*Classification, error) {
	var out Classification
	if err := c.completeJSON(ctx, "classify", FormatClassifyPrompt(rawText), &out); err != nil {
		return nil, err
	}
	if out.Topic == "" {
		return nil, fmt.Errorf("classify stage returned empty topic")
	}
	normalizeClassification(&out)
	return &out, nil
}

// VerifyClaims implements Oracle.
func (c *Client) VerifyClaims(ctx context.Context, topic string, entities []string) (*Verification, error) {
	var out Verification
	if err := c.completeJSON(ctx, "verify", FormatVerifyPrompt(topic, entities), &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		out.Status = models.VerificationUnconfirmed
	}
	return &out, nil
}

// AnalyzeImpact implements Oracle.
func (c *Client) AnalyzeImpact(ctx context.Context, topic, rawText, priorSummary string) (*models.AnalysisOutput, error) {
	var out models.AnalysisOutput
	if err := c.completeJSON(ctx, "analyze", FormatAnalyzePrompt(topic, rawText, priorSummary), &out); err != nil {
		return nil, err
	}
	if out.Stance == "" {
		out.Stance = models.StanceNeutral
	}
	return &out, nil
}

// Judge implements Oracle.
func (c *Client) Judge(ctx context.Context, cls *Classification, v *Verification, a *models.AnalysisOutput) (*models.Routing, error) {
	var out models.Routing
	if err := c.completeJSON(ctx, "judge", FormatJudgePrompt(cls, v, a), &out); err != nil {
		return nil, err
	}
	normalizeRouting(&out)
	return &out, nil
}

// GenerateDraft implements Oracle.
func (c *Client) GenerateDraft(ctx context.Context, signal *models.Signal, analysis *models.AnalysisOutput, feedback string) (*DraftContent, error) {
	var out DraftContent
	if err := c.completeJSON(ctx, "draft", FormatDraftPrompt(signal, analysis, feedback), &out); err != nil {
		return nil, err
	}
	if out.Content == "" {
		return nil, fmt.Errorf("draft stage returned empty content")
	}
	return &out, nil
}

// ValidateURL implements Oracle.
func (c *Client) ValidateURL(ctx context.Context, url string) (*URLValidation, error) {
	var out URLValidation
	if err := c.completeJSON(ctx, "validate-url", FormatValidateURLPrompt(url), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SupplementalVerification implements Oracle. Advisory only.
func (c *Client) SupplementalVerification(ctx context.Context, topic, question string) (string, error) {
	return c.completeText(ctx, "supplemental-verify", FormatSupplementalPrompt(topic, question))
}

// DistillStory implements Oracle.
func (c *Client) DistillStory(ctx context.Context, story *models.Story, signals []models.Signal) (string, error) {
	return c.completeText(ctx, "distill", FormatDistillPrompt(story, signals))
}

// DeepDiveReport implements Oracle.
func (c *Client) DeepDiveReport(ctx context.Context, signal *models.Signal) (string, error) {
	return c.completeText(ctx, "deep-dive", FormatDeepDivePrompt(signal))
}

// imageRequest is an OpenAI-compatible image generation request
type imageRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

// imageResponse is an OpenAI-compatible image generation response
type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GeneratePoster implements Oracle. Best-effort: callers must treat a
// failure as a degraded-but-successful run.
func (c *Client) GeneratePoster(ctx context.Context, topic, marketImpact string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, stageTimeout)
	defer cancel()

	reqBody := imageRequest{
		Prompt: FormatPosterPrompt(topic, marketImpact),
		N:      1,
		Size:   "1024x1024",
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal poster request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+"/images/generations", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create poster request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("poster request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("poster API error %d: %s", resp.StatusCode, string(body))
	}

	var imgResp imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&imgResp); err != nil {
		return "", fmt.Errorf("failed to decode poster response: %w", err)
	}
	if len(imgResp.Data) == 0 || imgResp.Data[0].URL == "" {
		return "", fmt.Errorf("poster response contained no image")
	}
	return imgResp.Data[0].URL, nil
}

// normalizeClassification coerces out-of-vocabulary enum values the model
// occasionally emits back into the closed sets.
func normalizeClassification(c *Classification) {
	switch c.SignalType {
	case models.SignalTypeRumor, models.SignalTypeEvent, models.SignalTypeNarrative, models.SignalTypeData:
	default:
		c.SignalType = models.SignalTypeEvent
	}
	switch c.Domain {
	case models.DomainCrypto, models.DomainAI, models.DomainAICrypto:
	default:
		c.Domain = models.DomainCrypto
	}
	c.TimeSensitivity = normalizeLevel(c.TimeSensitivity)
	c.DiscussionLevel = normalizeLevel(c.DiscussionLevel)
	if c.Entities == nil {
		c.Entities = []string{}
	}
}

func normalizeLevel(l models.Level) models.Level {
	switch l {
	case models.LevelLow, models.LevelMedium, models.LevelHigh:
		return l
	default:
		return models.LevelMedium
	}
}

func normalizeRouting(r *models.Routing) {
	if r.Lane != models.LaneFast && r.Lane != models.LaneSlow {
		r.Lane = models.LaneSlow
	}
	if r.Track != models.TrackTraffic && r.Track != models.TrackResearch {
		r.Track = models.TrackResearch
	}
	switch r.PublishLevel {
	case models.PublishAuto, models.PublishSemi, models.PublishManual:
	default:
		r.PublishLevel = models.PublishManual
	}
	if r.RequiredLabels == nil {
		r.RequiredLabels = []string{}
	}
	if r.RiskNotes == nil {
		r.RiskNotes = []string{}
	}
}
