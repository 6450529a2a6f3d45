// Package scheduler dispara el barrido diario de revisiones dentro del proceso de la API.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/reposicion-api/internal/application/inventory"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

// Sweeper lo que el scheduler necesita del caso de uso de reposición.
type Sweeper interface {
	RunDailySweep(ctx context.Context, loc *time.Location) (*inventory.RunReport, error)
}

// Daily corre el barrido según una expresión cron evaluada en loc.
type Daily struct {
	sweeper  Sweeper
	schedule cron.Schedule
	loc      *time.Location
	log      *logger.Logger
}

// NewDaily construye el scheduler; spec es una expresión cron de cinco campos.
func NewDaily(sweeper Sweeper, spec string, loc *time.Location, log *logger.Logger) (*Daily, error) {
	if loc == nil {
		loc = time.UTC
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("expresión cron %q: %w", spec, err)
	}
	return &Daily{sweeper: sweeper, schedule: schedule, loc: loc, log: log}, nil
}

// Run bloquea hasta que ctx se cancele y espera a que termine un barrido en curso.
// Si un barrido sigue corriendo al llegar el siguiente disparo, ese disparo se salta.
func (d *Daily) Run(ctx context.Context) error {
	cl := cronLogger{log: d.log}
	c := cron.New(
		cron.WithLocation(d.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(d.schedule, cron.FuncJob(func() { d.Sweep(ctx) }))
	c.Start()
	d.log.Info().Time("next_run", d.Next(time.Now())).Msg("barrido diario programado")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// Next siguiente disparo estrictamente posterior a now, en loc.
func (d *Daily) Next(now time.Time) time.Time {
	return d.schedule.Next(now.In(d.loc))
}

// Sweep una corrida del barrido. El error se registra y no detiene el scheduler.
func (d *Daily) Sweep(ctx context.Context) {
	report, err := d.sweeper.RunDailySweep(ctx, d.loc)
	if err != nil {
		d.log.Error().Err(err).Msg("barrido diario")
		return
	}
	if report.Skipped {
		return
	}
	d.log.Info().
		Int("reviewed", len(report.Reviewed)).
		Int("needs", report.Needs).
		Int("failed", len(report.Failed)).
		Msg("barrido diario completado")
}

// cronLogger pasa los mensajes de cron a zerolog.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
