package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/chat/domain"
	maindomain "github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// tracer é o tracer OpenTelemetry para o módulo chat/infra.
var tracer = otel.Tracer("chat/infra")

// ============================================================
// GeminiClient: cliente HTTP da API generateContent do Gemini
// ============================================================
//
//	POST {baseURL}/v1beta/models/{model}:generateContent
//	Header: x-goog-api-key
//	Body:   {"systemInstruction": {...}, "contents": [...], "generationConfig": {...}}

type GeminiClient struct {
	httpClient *http.Client
	baseURL    string // ex: https://generativelanguage.googleapis.com
	apiKey     string
	model      string // ex: gemini-2.5-flash
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
}

// NewGeminiClient cria o client do Gemini.
// O bulkhead limita quantas chamadas ao modelo rodam ao mesmo tempo.
func NewGeminiClient(httpClient *http.Client, baseURL, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, bulkhead *resilience.Bulkhead) *GeminiClient {
	return &GeminiClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   bulkhead,
	}
}

// --- contrato da API ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
}

// buildGeminiRequest converte o ModelRequest no payload da API.
// Mensagens da IA viram role "model".
func buildGeminiRequest(req *domain.ModelRequest) *geminiRequest {
	body := &geminiRequest{
		GenerationConfig: geminiGenerationConfig{Temperature: 0.4, MaxOutputTokens: 1024},
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	for _, turn := range req.History {
		role := "user"
		if turn.Role == "model" {
			role = "model"
		}
		body.Contents = append(body.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: turn.Text}}})
	}
	body.Contents = append(body.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}})
	return body
}

// Generate envia o prompt ao Gemini.
//
// Fluxo:
//  1. Ocupa uma vaga no bulkhead (ou desiste quando o ctx expira)
//  2. Circuit breaker + retry com backoff em volta do POST
//  3. 429 e 5xx são retentados; outros 4xx não
//  4. Junta o texto das parts do primeiro candidato
func (c *GeminiClient) Generate(ctx context.Context, req *domain.ModelRequest) (*domain.ModelResponse, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("model", c.model))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, &maindomain.ErrTimeout{Operation: "gemini bulkhead"}
	}
	defer c.bulkhead.Release()

	payload, err := json.Marshal(buildGeminiRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	result, err := c.cb.Execute(func() (any, error) {
		var out geminiResponse
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
			if err != nil {
				return resilience.Permanent(fmt.Errorf("create http request: %w", err))
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("x-goog-api-key", c.apiKey)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("http call to gemini: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("gemini generateContent returned status %d", resp.StatusCode)
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
					return statusErr
				}
				return resilience.Permanent(statusErr)
			}

			out = geminiResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return resilience.Permanent(fmt.Errorf("decode gemini response: %w", err))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &out, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &maindomain.ErrCircuitOpen{Service: "gemini"}
	}
	if err != nil {
		return nil, &maindomain.ErrExternalService{Service: "gemini", Err: err}
	}

	gr := result.(*geminiResponse)
	text := gr.text()
	if text == "" {
		reason := "empty candidate"
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			reason = "blocked: " + gr.PromptFeedback.BlockReason
		}
		return nil, &maindomain.ErrExternalService{Service: "gemini", Err: errors.New(reason)}
	}

	model := gr.ModelVersion
	if model == "" {
		model = c.model
	}
	span.SetAttributes(attribute.Int("tokens.total", gr.UsageMetadata.TotalTokenCount))

	return &domain.ModelResponse{
		Text:             text,
		Model:            model,
		PromptTokens:     gr.UsageMetadata.PromptTokenCount,
		CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
