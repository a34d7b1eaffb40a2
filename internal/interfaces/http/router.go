package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cotizador-api/internal/application/approval"
	"github.com/jhoicas/Cotizador-api/internal/application/audit"
	"github.com/jhoicas/Cotizador-api/internal/application/candidate"
	"github.com/jhoicas/Cotizador-api/internal/application/pricing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PricingUC   *pricing.ComputeRunUseCase
	ApprovalUC  *approval.UseCase
	AuditUC     *audit.UseCase
	CandidateUC *candidate.UseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Healthcheck (público)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Pricing runs (protegido)
	pricingHandler := NewPricingHandler(deps.PricingUC)
	protected.Post("/rfqs/:id/pricing-runs", pricingHandler.ComputeRun)
	protected.Get("/pricing-runs/:id", pricingHandler.GetRun)

	// Approval (protegido)
	approvalHandler := NewApprovalHandler(deps.ApprovalUC)
	protected.Post("/pricing-runs/:id/submit", approvalHandler.Submit)
	protected.Post("/pricing-runs/:id/approve", approvalHandler.Approve)
	protected.Post("/pricing-runs/:id/reject", approvalHandler.Reject)

	// Audit (protegido)
	auditHandler := NewAuditHandler(deps.AuditUC)
	protected.Get("/audit", auditHandler.Search)
	protected.Get("/pricing-runs/:id/audit", auditHandler.TrailByRun)

	// Quote candidates (protegido)
	candidateHandler := NewCandidateHandler(deps.CandidateUC)
	protected.Get("/quote-candidates", candidateHandler.List)
	protected.Post("/quote-candidates/:id/dismiss", candidateHandler.Dismiss)
	protected.Post("/quote-candidates/:id/convert", candidateHandler.MarkConverted)
	protected.Get("/quote-candidates/:id/document", candidateHandler.Document)
}
