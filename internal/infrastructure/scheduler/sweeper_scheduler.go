// Package scheduler programa los trabajos periódicos del servicio sobre
// robfig/cron: el barrido de escalamiento SLA y el reintento de
// auto-aprobaciones pendientes.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/Cotizador-api/internal/application/approval"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

// SweeperScheduler ejecuta el barrido de escalamiento según un schedule cron
// (soporta expresiones estándar y descriptores tipo "@every 1m").
type SweeperScheduler struct {
	cron    *cron.Cron
	sweeper *approval.Sweeper
	log     *logger.Logger
}

// NewSweeperScheduler construye el scheduler sin arrancarlo.
func NewSweeperScheduler(sweeper *approval.Sweeper, log *logger.Logger) *SweeperScheduler {
	return &SweeperScheduler{
		cron:    cron.New(),
		sweeper: sweeper,
		log:     log,
	}
}

// Start registra el trabajo y arranca el loop del cron en background.
func (s *SweeperScheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.runOnce)
	if err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("barridos del sistema programados")
	return nil
}

// Stop detiene el cron y espera a que termine el barrido en curso.
func (s *SweeperScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *SweeperScheduler) runOnce() {
	// Cada barrido acotado: un lote nunca debería tardar más que esto.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	escalated, err := s.sweeper.EscalateDue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido de escalamiento falló")
	} else if escalated > 0 {
		s.log.Info().Int("escalated", escalated).Msg("barrido de escalamiento completado")
	}

	approved, err := s.sweeper.AutoApproveEligible(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("barrido de auto-aprobación falló")
	} else if approved > 0 {
		s.log.Info().Int("auto_approved", approved).Msg("barrido de auto-aprobación completado")
	}
}
