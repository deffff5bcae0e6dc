package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the public Gemini REST endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const maxErrorBody = 2048

// GeminiOptions configures a Gemini client.
type GeminiOptions struct {
	APIKey          string
	BaseURL         string
	Model           string
	VisionModel     string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Gemini calls the generateContent REST method.
type Gemini struct {
	apiKey      string
	baseURL     string
	model       string
	visionModel string
	temperature float64
	maxTokens   int
	client      *http.Client
	logger      *zap.Logger
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewGemini creates a Gemini client. An empty API key is an error.
func NewGemini(opts GeminiOptions) (*Gemini, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = "gemini-1.5-flash"
	}
	if opts.VisionModel == "" {
		opts.VisionModel = opts.Model
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		model:       opts.Model,
		visionModel: opts.VisionModel,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
		client:      client,
		logger:      logger,
	}, nil
}

func (g *Gemini) Model() string       { return g.model }
func (g *Gemini) VisionModel() string { return g.visionModel }

// Generate sends a text-only prompt.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	return g.call(ctx, g.model, []geminiPart{{Text: prompt}})
}

// GenerateWithImage sends a prompt with one inline image.
func (g *Gemini) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", externalErr("empty image")
	}
	parts := []geminiPart{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
	}
	return g.call(ctx, g.visionModel, parts)
}

func (g *Gemini) call(ctx context.Context, model string, parts []geminiPart) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:     g.temperature,
			MaxOutputTokens: g.maxTokens,
		},
	})
	if err != nil {
		return "", externalErr("marshal request: %v", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", externalErr("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("gemini request failed", zap.String("model", model), zap.Error(err))
		return "", externalErr("request: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", externalErr("read response: %v", err)
	}
	g.logger.Debug("gemini response",
		zap.String("model", model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		var ge geminiError
		if json.Unmarshal(data, &ge) == nil && ge.Error.Message != "" {
			return "", externalErr("status %d: %s", resp.StatusCode, ge.Error.Message)
		}
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return "", externalErr("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", externalErr("decode response: %v", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", externalErr("prompt blocked: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", externalErr("no candidates in response")
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", externalErr("empty response (finish reason %s)", gr.Candidates[0].FinishReason)
	}
	return text, nil
}
