package aiclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"room-planner/internal/planner/suggest"
)

// ============================================================
// Gemini Client
// ============================================================

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-3-flash-preview"

	maxResponseBytes = 4 << 20
)

const (
	roomScannerPrompt = `You are a room measurement assistant. Estimate the floor dimensions of the room in the photo.
Return JSON with "width" and "depth" in centimeters.`

	furnitureScannerPrompt = `You are a furniture recognition assistant. Identify the main piece of furniture in the photo.
Return JSON with "name", "type" (one of Chair, Table, Sofa, Bed, Desk, Cabinet, Other) and
"dimensions" {"width", "depth", "height"} in centimeters.`

	arrangePromptTmpl = `Task: Optimize furniture layout for a room size %gx%gcm.
Items to place: %s

Instructions:
1. Use the EXACT "id" for each item.
2. Set "x" and "y" so items stay within bounds (0 to ROOM_SIZE - item_size).
3. Set "rotation" to 0, 90, 180, or 270.
4. Minimize overlaps and maximize central walking space.
5. Return a JSON array of objects.`
)

// Client реализует suggest.Provider поверх REST API Gemini.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

func New(baseURL, model, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// ============================================================
// Wire format
// ============================================================

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ============================================================
// suggest.Provider
// ============================================================

func (c *Client) ScanRoomImage(ctx context.Context, img suggest.Image) (suggest.RoomScan, error) {
	schema := object(map[string]any{
		"width": typed("NUMBER"),
		"depth": typed("NUMBER"),
	})

	text, err := c.generate(ctx, imageParts(img, roomScannerPrompt), schema)
	if err != nil {
		return suggest.RoomScan{}, err
	}

	var scan suggest.RoomScan
	if err := decodeObject(text, &scan); err != nil {
		return suggest.RoomScan{}, fmt.Errorf("decode room scan: %w", err)
	}
	return scan, nil
}

func (c *Client) ScanFurnitureImage(ctx context.Context, img suggest.Image) (suggest.FurnitureScan, error) {
	schema := object(map[string]any{
		"name": typed("STRING"),
		"type": typed("STRING"),
		"dimensions": object(map[string]any{
			"width":  typed("NUMBER"),
			"depth":  typed("NUMBER"),
			"height": typed("NUMBER"),
		}),
	})

	text, err := c.generate(ctx, imageParts(img, furnitureScannerPrompt), schema)
	if err != nil {
		return suggest.FurnitureScan{}, err
	}

	var scan suggest.FurnitureScan
	if err := decodeObject(text, &scan); err != nil {
		return suggest.FurnitureScan{}, fmt.Errorf("decode furniture scan: %w", err)
	}
	return scan, nil
}

// ProposeArrangement отдает текст ответа как есть, проверяет его Reconciler.
func (c *Client) ProposeArrangement(ctx context.Context, roomWidth, roomDepth float64, items []suggest.Footprint) ([]byte, error) {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}

	schema := map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"id":       described("STRING", "The original item ID"),
				"x":        described("NUMBER", "X coordinate in cm"),
				"y":        described("NUMBER", "Y coordinate in cm"),
				"rotation": described("NUMBER", "Rotation in degrees"),
			},
			"required": []string{"id", "x", "y", "rotation"},
		},
	}

	prompt := fmt.Sprintf(arrangePromptTmpl, roomWidth, roomDepth, itemsJSON)
	text, err := c.generate(ctx, []part{{Text: prompt}}, schema)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}

// ============================================================
// Transport
// ============================================================

func (c *Client) generate(ctx context.Context, parts []part, schema map[string]any) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("gemini api key is empty")
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	log.Printf("[AI] %s -> %d in %s (%d bytes)", c.model, resp.StatusCode, time.Since(start).Round(time.Millisecond), len(data))

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("gemini status %d: invalid body: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 {
		if out.Error != nil {
			return "", fmt.Errorf("gemini status %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	var text strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return text.String(), nil
}

// ============================================================
// Helpers
// ============================================================

func imageParts(img suggest.Image, prompt string) []part {
	mime := img.MimeType
	if mime == "" {
		mime = http.DetectContentType(img.Data)
	}
	return []part{
		{InlineData: &inlineData{MimeType: mime, Data: base64.StdEncoding.EncodeToString(img.Data)}},
		{Text: prompt},
	}
}

// decodeObject трактует пустой ответ как пустой объект: все поля получат значения по умолчанию.
func decodeObject(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "{}"
	}
	return json.Unmarshal([]byte(text), v)
}

func typed(t string) map[string]any {
	return map[string]any{"type": t}
}

func described(t, description string) map[string]any {
	return map[string]any{"type": t, "description": description}
}

func object(props map[string]any) map[string]any {
	return map[string]any{"type": "OBJECT", "properties": props}
}
