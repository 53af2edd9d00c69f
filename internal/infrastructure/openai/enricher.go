package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/woosync/backend/internal/domain"
	"go.uber.org/zap"
)

// Enricher asks an OpenAI chat model for description/brand/category
// suggestions. Enrichment is strictly best-effort: a malformed reply is a
// nil result, not an error, and callers proceed un-enriched.
type Enricher struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	log        *zap.SugaredLogger
}

// NewEnricher creates an enrichment adapter. An empty API key is allowed;
// Enrich then returns nil for every product.
func NewEnricher(apiKey, model, baseURL string, log *zap.SugaredLogger) *Enricher {
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &Enricher{
		httpClient: &http.Client{
			Timeout: 35 * time.Second,
		},
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat responseFmt   `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Enrich requests metadata for a product name, constrained to the permitted
// category labels. Returns (nil, nil) when the key is missing or the reply
// cannot be parsed into the required three-key structure; returns an error
// only for authentication or transport failures.
func (e *Enricher) Enrich(ctx context.Context, productName string, allowedCategories []string) (*domain.EnrichmentResult, error) {
	if e.apiKey == "" {
		return nil, nil
	}
	if len(allowedCategories) == 0 {
		e.log.Warnw("category list for enrichment is empty, category suggestion may be null", "product", productName)
	}

	reqBody := chatRequest{
		Model: e.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You generate product metadata as JSON, following strict instructions."},
			{Role: "user", Content: buildPrompt(productName, allowedCategories)},
		},
		Temperature:    0.2,
		MaxTokens:      350,
		ResponseFormat: responseFmt{Type: "json_object"},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode enrichment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UnavailableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &domain.UnauthenticatedError{Status: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.RemoteRejectedError{Status: resp.StatusCode, Message: string(body)}
	}

	var chat chatResponse
	if err := json.Unmarshal(body, &chat); err != nil || len(chat.Choices) == 0 {
		e.log.Warnw("enrichment reply is not a chat completion, skipping", "product", productName)
		return nil, nil
	}

	result := parseResult(chat.Choices[0].Message.Content)
	if result == nil {
		e.log.Warnw("enrichment reply missing required keys, skipping", "product", productName)
		return nil, nil
	}
	e.log.Debugw("enrichment parsed", "product", productName, "brand", result.Brand, "category", result.Category)
	return result, nil
}

// buildPrompt instructs the model to pick a category only from the live
// list. The category value is still advisory and verified downstream.
func buildPrompt(productName string, categories []string) string {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	categoryList := strings.Join(quoted, ", ")
	if categoryList == "" {
		categoryList = "none available"
	}

	return fmt.Sprintf(`You are an expert product cataloger for an online home-appliance store. Your task is to generate accurate metadata in JSON format.

Instructions:
1. Analyze the product title: %q
2. Identify the brand. If no brand is evident in the title, use null for "brand".
3. Select the SINGLE most suitable category EXCLUSIVELY from this list of available categories: [%s]. Do NOT invent categories. Prioritize the product's primary function over its brand. If no category fits, use null for "category".
4. Generate a short, appealing HTML description (one <p> paragraph, at most 60 words) highlighting key benefits.
5. Respond ONLY with a valid JSON object with the exact keys "description", "brand" and "category". No extra text before or after the JSON.

JSON for the product %q:`, productName, categoryList, productName)
}

// parseResult decodes the model reply, tolerating markdown code fences.
// Returns nil when the reply is not an object with the three required keys.
func parseResult(content string) *domain.EnrichmentResult {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var raw map[string]*string
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil
	}
	for _, key := range []string{"description", "brand", "category"} {
		if _, ok := raw[key]; !ok {
			return nil
		}
	}

	result := &domain.EnrichmentResult{}
	if v := raw["description"]; v != nil {
		result.Description = *v
	}
	if v := raw["brand"]; v != nil {
		result.Brand = *v
	}
	if v := raw["category"]; v != nil {
		result.Category = *v
	}
	return result
}
