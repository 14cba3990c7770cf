package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/expiry-tracker/internal/config"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/expiry"
)

const (
	apiVersion = "2023-06-01"
	maxTokens  = 2048
)

// ErrEmptyResponse is returned when the model answers with no content.
var ErrEmptyResponse = errors.New("empty response from ai")

// Client extracts receipts and estimates shelf lives.
type Client interface {
	ExtractReceipt(ctx context.Context, image []byte, mediaType string) (models.ExtractedReceipt, error)
	EstimateShelfLife(ctx context.Context, itemName string) (int, error)
}

type anthropicClient struct {
	httpClient *resty.Client
	model      string
}

// NewClient creates a configured Anthropic client.
func NewClient(cfg config.AIConfig) Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("x-api-key", cfg.AnthropicKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(30 * time.Second)

	return &anthropicClient{httpClient: client, model: cfg.Model}
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system"`
	Temperature float64   `json:"temperature"`
	Messages    []message `json:"messages"`
}

// message content is either a plain string or a list of content blocks.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

const receiptPrompt = `You read grocery receipts. Extract the store name, the purchase date and every purchased line item from the image.

RULES:
- Output ONLY a JSON object, no prose.
- "date" is the purchase date as YYYY-MM-DD, or null when it cannot be read.
- For each item give "name", "category" (Dairy, Meat, Produce, Bakery, Eggs, Seafood, Frozen, Packaged, Pantry, Household, Toiletries, Cleaning or Paper), "quantity" and "price" as numbers or null, "isPerishable" and "expiryDays", the typical number of days the item keeps after purchase, or null for non-perishable goods.
- Skip totals, taxes, discounts and payment lines.

Structure:
{"store": "...", "date": "YYYY-MM-DD" or null, "items": [{"name": "...", "category": "...", "quantity": 1, "price": 2.49, "isPerishable": true, "expiryDays": 7}]}`

const shelfLifePrompt = `You are a grocery expert who knows the shelf life of food items. Output ONLY a JSON object of the form {"expiryDays": N} where N is the typical number of whole days the item keeps after purchase when stored as usual.`

type extractedItem struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Quantity     *float64 `json:"quantity"`
	Price        *float64 `json:"price"`
	IsPerishable *bool    `json:"isPerishable"`
	ExpiryDays   *float64 `json:"expiryDays"`
}

type extractedReceipt struct {
	Store string          `json:"store"`
	Date  *string         `json:"date"`
	Items []extractedItem `json:"items"`
}

func (c *anthropicClient) ExtractReceipt(ctx context.Context, image []byte, mediaType string) (models.ExtractedReceipt, error) {
	content := []contentBlock{
		{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: mediaType,
				Data:      base64.StdEncoding.EncodeToString(image),
			},
		},
		{Type: "text", Text: "Extract this receipt."},
	}

	text, err := c.complete(ctx, receiptPrompt, content)
	if err != nil {
		return models.ExtractedReceipt{}, err
	}

	var raw extractedReceipt
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return models.ExtractedReceipt{}, fmt.Errorf("failed to unmarshal ai response: %w", err)
	}
	return raw.toModel(), nil
}

func (r extractedReceipt) toModel() models.ExtractedReceipt {
	out := models.ExtractedReceipt{Store: strings.TrimSpace(r.Store)}
	if r.Date != nil {
		if d, err := models.ParseDate(*r.Date); err == nil {
			out.Date = d.Ptr()
		}
	}
	for _, raw := range r.Items {
		name := strings.TrimSpace(raw.Name)
		if name == "" {
			continue
		}
		item := models.NewItem(name)
		item.Category = strings.TrimSpace(raw.Category)
		item.Quantity = raw.Quantity
		item.Price = raw.Price
		if raw.IsPerishable != nil {
			item.IsPerishable = *raw.IsPerishable
		}
		if raw.ExpiryDays != nil {
			if days, ok := expiry.RoundDays(*raw.ExpiryDays); ok {
				item.ExpiryDays = &days
			}
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func (c *anthropicClient) EstimateShelfLife(ctx context.Context, itemName string) (int, error) {
	prompt := fmt.Sprintf("How many days does the grocery item %q keep, assuming it is purchased today?", itemName)

	text, err := c.complete(ctx, shelfLifePrompt, prompt)
	if err != nil {
		return 0, err
	}

	var result struct {
		ExpiryDays *float64 `json:"expiryDays"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ai response: %w", err)
	}
	if result.ExpiryDays == nil {
		return 0, fmt.Errorf("ai response has no usable expiryDays: %s", text)
	}
	days, ok := expiry.RoundDays(*result.ExpiryDays)
	if !ok {
		return 0, fmt.Errorf("ai response has no usable expiryDays: %s", text)
	}
	return days, nil
}

// complete sends one user turn and returns the JSON object the model produced.
func (c *anthropicClient) complete(ctx context.Context, system string, content any) (string, error) {
	reqBody := messageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: 0.3,
		Messages: []message{
			{Role: "user", Content: content},
			// Prefill the assistant response to force JSON.
			{Role: "assistant", Content: "{"},
		},
	}

	var respBody messageResponse
	var errBody apiError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		SetError(&errBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		if errBody.Error.Message != "" {
			return "", fmt.Errorf("anthropic api error: status=%d, message=%s", resp.StatusCode(), errBody.Error.Message)
		}
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", ErrEmptyResponse
	}

	return cleanJSON("{" + respBody.Content[0].Text), nil
}

// cleanJSON strips markdown fences the model sometimes wraps its JSON in.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
