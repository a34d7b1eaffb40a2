package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/ports"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
)

// Verificar en tiempo de compilación que WebhookNotifier implementa Notifier.
var _ ports.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier publica eventos de aprobación a un webhook HTTP (Slack,
// Teams, o el gateway de notificaciones del tenant). La entrega es
// best-effort: el caso de uso registra el error y la transición ya quedó
// confirmada en la base de datos.
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookNotifier construye el adaptador. URL vacía = notificaciones deshabilitadas.
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

type webhookPayload struct {
	Event      string `json:"event"`
	TenantID   string `json:"tenant_id"`
	RunID      string `json:"run_id"`
	RFQID      string `json:"rfq_id"`
	Status     string `json:"status"`
	Level      int    `json:"level,omitempty"`
	AssigneeID string `json:"assignee_id,omitempty"`
	Deadline   string `json:"deadline,omitempty"`
}

// RunRequiresAction notifica que un run quedó pendiente de un aprobador.
func (n *WebhookNotifier) RunRequiresAction(ctx context.Context, run *entity.PricingRun) error {
	p := webhookPayload{
		Event:      "run.requires_action",
		TenantID:   run.TenantID,
		RunID:      run.ID,
		RFQID:      run.RFQID,
		Status:     run.Status,
		Level:      run.CurrentLevel,
		AssigneeID: run.AssignedApproverID,
	}
	if run.SLADeadline != nil {
		p.Deadline = run.SLADeadline.Format(time.RFC3339)
	}
	return n.post(ctx, p)
}

// RunResolved notifica que un run llegó a estado terminal.
func (n *WebhookNotifier) RunResolved(ctx context.Context, run *entity.PricingRun) error {
	return n.post(ctx, webhookPayload{
		Event:    "run.resolved",
		TenantID: run.TenantID,
		RunID:    run.ID,
		RFQID:    run.RFQID,
		Status:   run.Status,
	})
}

func (n *WebhookNotifier) post(ctx context.Context, p webhookPayload) error {
	if n.webhookURL == "" {
		return nil
	}
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("notify: serializar payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: crear HTTP request: %w", err)
	}
	req.Header.Set("content-type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook HTTP %d", resp.StatusCode)
	}
	return nil
}
