package regulatory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cotizador-api/internal/application/ports"
)

// Verificar en tiempo de compilación que HTTPTariffClient implementa RegulatoryLookup.
var _ ports.RegulatoryLookup = (*HTTPTariffClient)(nil)

// HTTPTariffClient adaptador del servicio regulatorio de aranceles.
// Consulta GET {base}/tariffs?category=&origin_country=&origin_type= y traduce
// 404 (o respuesta sin mapeo) a found=false; el motor de precios aplica
// entonces arancel cero sin tratarlo como error.
type HTTPTariffClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPTariffClient construye el adaptador. timeout acota cada llamada.
func NewHTTPTariffClient(baseURL string, timeout time.Duration) *HTTPTariffClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTariffClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type tariffResponse struct {
	HSCode   string          `json:"hs_code"`
	DutyRate decimal.Decimal `json:"duty_rate"`
	Found    bool            `json:"found"`
}

// DutyFor resuelve el arancel para (categoría, país de origen, tipo de origen).
func (c *HTTPTariffClient) DutyFor(ctx context.Context, category, originCountry, originType string) (ports.HSDuty, bool, error) {
	if c.baseURL == "" {
		// Servicio no configurado: comportarse como "sin mapeo".
		return ports.HSDuty{}, false, nil
	}

	q := url.Values{}
	q.Set("category", category)
	q.Set("origin_country", originCountry)
	q.Set("origin_type", originType)
	endpoint := fmt.Sprintf("%s/tariffs?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.HSDuty{}, false, fmt.Errorf("regulatory: crear HTTP request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.HSDuty{}, false, fmt.Errorf("regulatory: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ports.HSDuty{}, false, nil
	}
	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ports.HSDuty{}, false, fmt.Errorf("regulatory: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ports.HSDuty{}, false, fmt.Errorf("regulatory: HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var body tariffResponse
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return ports.HSDuty{}, false, fmt.Errorf("regulatory: deserializar respuesta: %w", err)
	}
	if !body.Found || body.HSCode == "" {
		return ports.HSDuty{}, false, nil
	}
	if body.DutyRate.IsNegative() {
		return ports.HSDuty{}, false, fmt.Errorf("regulatory: duty_rate negativo para %s/%s", category, originCountry)
	}

	return ports.HSDuty{HSCode: body.HSCode, DutyRate: body.DutyRate}, true, nil
}
