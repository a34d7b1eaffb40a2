package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/application/ports"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que AnthropicRiskService implementa RiskAssessor.
var _ ports.RiskAssessor = (*AnthropicRiskService)(nil)

const (
	anthropicMessagesURL = "https://api.anthropic.com/v1/messages"
	anthropicVersion     = "2023-06-01"

	anthropicSystemPrompt = `Eres un analista de riesgo comercial especializado en la compraventa de acero y metales.
Recibes el resumen de una cotización (totales, margen, origen de los materiales) y evalúas su riesgo.
Devuelve ÚNICAMENTE un objeto JSON válido (sin markdown, sin bloques de código` + " ```json" + `) con esta estructura exacta:
{
  "risk_level": "<LOW | MEDIUM | HIGH>",
  "risk_score": <número entero entre 0 y 100>,
  "recommendation": "<AUTO_APPROVE | MANUAL_REVIEW>",
  "rationale": "<explicación concisa en español, máximo 200 caracteres>",
  "confidence": <número decimal entre 0.0 y 1.0>
}

Reglas:
- risk_level HIGH si el margen es inusualmente bajo, hay fuerte exposición a importaciones o montos muy altos.
- recommendation AUTO_APPROVE solo si risk_level es LOW y la cotización es rutinaria.
- No incluyas texto fuera del JSON. Solo el objeto JSON.`
)

// AnthropicRiskService adaptador que implementa RiskAssessor usando la API REST de Anthropic (Claude).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type AnthropicRiskService struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicRiskService construye el adaptador.
// model suele ser "claude-3-5-haiku-20241022".
// Si apiKey está vacío las llamadas devuelven error descriptivo en lugar de panic.
func NewAnthropicRiskService(apiKey, model string) *AnthropicRiskService {
	return &AnthropicRiskService{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			// Timeout de red de 25 s; el use case impone además su propio context.WithTimeout.
			Timeout: 25 * time.Second,
		},
	}
}

// ── Estructuras internas del protocolo Anthropic Messages API ─────────────────

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type llmRiskPayload struct {
	RiskLevel      string  `json:"risk_level"`
	RiskScore      int     `json:"risk_score"`
	Recommendation string  `json:"recommendation"`
	Rationale      string  `json:"rationale"`
	Confidence     float64 `json:"confidence"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque Claude lo envuelva en markdown.
// Captura desde el primer '{' hasta el último '}' coincidente.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// ── Implementación del puerto ─────────────────────────────────────────────────

// Assess envía el resumen de la cotización a Claude y devuelve la evaluación de riesgo.
func (s *AnthropicRiskService) Assess(
	ctx context.Context,
	run *entity.PricingRun,
	items []*entity.PricingRunItem,
) (*entity.RiskAssessment, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("AI: ANTHROPIC_API_KEY no configurado")
	}

	payload := anthropicRequest{
		Model:     s.model,
		MaxTokens: 1024,
		System:    anthropicSystemPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildRunSummary(run, items)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("AI: serializar request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicMessagesURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("AI: crear HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("AI: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("AI: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("AI: leer respuesta: %w", err)
	}

	// Manejar errores HTTP de la API de Anthropic
	if resp.StatusCode != http.StatusOK {
		var errResp anthropicResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Error != nil {
			return nil, fmt.Errorf("AI: Anthropic error (%s): %s", errResp.Error.Type, errResp.Error.Message)
		}
		return nil, fmt.Errorf("AI: Anthropic HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var anthResp anthropicResponse
	if err := json.Unmarshal(rawBody, &anthResp); err != nil {
		return nil, fmt.Errorf("AI: deserializar respuesta Anthropic: %w", err)
	}

	if len(anthResp.Content) == 0 {
		return nil, fmt.Errorf("AI: Claude devolvió respuesta vacía")
	}

	rawText := anthResp.Content[0].Text

	// Parseo seguro: extraer solo el bloque JSON aunque Claude añada texto adicional.
	cleanJSON := extractJSON(rawText)
	if cleanJSON == "" {
		return nil, fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", rawText)
	}

	var parsed llmRiskPayload
	if err := json.Unmarshal([]byte(cleanJSON), &parsed); err != nil {
		return nil, fmt.Errorf("AI: parsear JSON de riesgo: %w (JSON extraído: %s)", err, cleanJSON)
	}

	return normalizeAssessment(parsed)
}

// buildRunSummary arma el mensaje de usuario con los datos relevantes del run.
// No se envían datos del cliente más allá de lo necesario para evaluar riesgo.
func buildRunSummary(run *entity.PricingRun, items []*entity.PricingRunItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cotización en %s.\n", run.Currency)
	fmt.Fprintf(&b, "Costo total: %s. Precio de venta total: %s. Margen: %s%%.\n",
		run.TotalCost.StringFixed(2), run.TotalPrice.StringFixed(2), run.MarginPct.StringFixed(2))
	withDuty := 0
	for _, it := range items {
		if it.DutyCost.IsPositive() {
			withDuty++
		}
	}
	fmt.Fprintf(&b, "Líneas: %d (con arancel de importación: %d).\n", len(items), withDuty)
	for i, it := range items {
		fmt.Fprintf(&b, "- Línea %d: cantidad %s, costo landed %s, arancel %s, precio %s\n",
			i+1, it.Quantity.StringFixed(2), it.LandedCost.StringFixed(2),
			it.DutyCost.StringFixed(2), it.SellPrice.StringFixed(2))
	}
	return b.String()
}

// normalizeAssessment valida los valores del modelo; valores fuera de catálogo
// degradan a MEDIUM / MANUAL_REVIEW en lugar de propagarse.
func normalizeAssessment(p llmRiskPayload) (*entity.RiskAssessment, error) {
	level := strings.ToUpper(strings.TrimSpace(p.RiskLevel))
	switch level {
	case entity.RiskLevelLow, entity.RiskLevelMedium, entity.RiskLevelHigh:
	default:
		level = entity.RiskLevelMedium
	}

	rec := strings.ToUpper(strings.TrimSpace(p.Recommendation))
	switch rec {
	case entity.RiskRecommendAutoApprove, entity.RiskRecommendManualReview:
	default:
		rec = entity.RiskRecommendManualReview
	}

	score := p.RiskScore
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	confidence := p.Confidence
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	return &entity.RiskAssessment{
		Level:          level,
		Score:          score,
		Recommendation: rec,
		Rationale:      p.Rationale,
		Confidence:     decimal.NewFromFloat(confidence),
	}, nil
}

// extractJSON extrae el primer objeto JSON bien formado de un texto libre.
// Estrategia en dos pasos:
//  1. Eliminar bloques de código markdown (```json … ``` o ``` … ```).
//  2. Usar regex para capturar el primer bloque { … }.
func extractJSON(text string) string {
	// Eliminar bloques markdown ```json ... ``` o ``` ... ```
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		// Quitar la línea de apertura (```json o ```)
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		// Quitar el cierre ```
		if close := strings.LastIndex(after, "```"); close != -1 {
			after = after[:close]
		}
		text = strings.TrimSpace(after)
	}

	// Si el texto resultante ya empieza con '{', usarlo directamente
	if strings.HasPrefix(text, "{") {
		return text
	}

	// Fallback: regex para extraer el primer {...}
	match := jsonBlockRe.FindString(text)
	return strings.TrimSpace(match)
}
