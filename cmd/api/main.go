package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appapproval "github.com/jhoicas/Cotizador-api/internal/application/approval"
	appaudit "github.com/jhoicas/Cotizador-api/internal/application/audit"
	appcandidate "github.com/jhoicas/Cotizador-api/internal/application/candidate"
	apppricing "github.com/jhoicas/Cotizador-api/internal/application/pricing"
	"github.com/jhoicas/Cotizador-api/internal/application/tenantctx"
	infraai "github.com/jhoicas/Cotizador-api/internal/infrastructure/ai"
	infranotify "github.com/jhoicas/Cotizador-api/internal/infrastructure/notify"
	infrapdf "github.com/jhoicas/Cotizador-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/postgres"
	infraregulatory "github.com/jhoicas/Cotizador-api/internal/infrastructure/regulatory"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/Cotizador-api/internal/interfaces/http"
	"github.com/jhoicas/Cotizador-api/pkg/config"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	tenantRepo := postgres.NewTenantRepository(pool)
	ruleRepo := postgres.NewPricingRuleRepository(pool)
	rfqRepo := postgres.NewRFQRepository(pool)
	runRepo := postgres.NewPricingRunRepository(pool)
	eventRepo := postgres.NewApprovalEventRepository(pool)
	candidateRepo := postgres.NewQuoteCandidateRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	guard := tenantctx.NewGuard(log)

	// Colaboradores externos: riesgo (IA), aranceles y notificaciones.
	riskAssessor := infraai.NewAnthropicRiskService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	regulatory := infraregulatory.NewHTTPTariffClient(
		cfg.Regulatory.BaseURL,
		time.Duration(cfg.Regulatory.TimeoutSeconds)*time.Second,
	)
	notifier := infranotify.NewWebhookNotifier(cfg.Notify.WebhookURL)

	approvalUC := appapproval.NewUseCase(txRunner, runRepo, tenantRepo, notifier, guard, log)

	resolver := apppricing.NewRuleResolver(ruleRepo, guard)
	pricingUC := apppricing.NewComputeRunUseCase(
		txRunner, tenantRepo, rfqRepo, runRepo, resolver,
		regulatory, riskAssessor, approvalUC, guard, log,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
	)

	auditUC := appaudit.NewUseCase(eventRepo, guard)

	pdfGenerator := infrapdf.NewMarotoQuoteGenerator()
	candidateUC := appcandidate.NewUseCase(candidateRepo, runRepo, tenantRepo, pdfGenerator, guard)

	// Barridos del sistema sobre cron: escalamiento SLA y auto-aprobaciones pendientes.
	sweeper := appapproval.NewSweeper(txRunner, runRepo, tenantRepo, approvalUC, notifier, log, cfg.Sweeper.BatchSize)
	sched := scheduler.NewSweeperScheduler(sweeper, log)
	if err := sched.Start(cfg.Sweeper.Schedule); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.Sweeper.Schedule).Msg("programar sweeper")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cotizador API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		PricingUC:   pricingUC,
		ApprovalUC:  approvalUC,
		AuditUC:     auditUC,
		CandidateUC: candidateUC,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
