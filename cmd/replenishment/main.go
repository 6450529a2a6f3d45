// Comando replenishment: tareas de reposición para un cron externo.
//
//	replenishment review-sweep [--date 2026-01-31]
//	replenishment recompute
//	replenishment migrate
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jhoicas/reposicion-api/internal/bootstrap"
	"github.com/jhoicas/reposicion-api/internal/infrastructure/postgres"
	"github.com/jhoicas/reposicion-api/pkg/config"
	"github.com/jhoicas/reposicion-api/pkg/logger"
)

type ctxKey struct{}

type runtime struct {
	cfg *config.Config
	log *logger.Logger
}

func loadRuntime(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-cli"})
	c.Context = context.WithValue(c.Context, ctxKey{}, &runtime{cfg: cfg, log: log})
	return nil
}

func fromContext(c *cli.Context) *runtime {
	return c.Context.Value(ctxKey{}).(*runtime)
}

func main() {
	app := &cli.App{
		Name:   "replenishment",
		Usage:  "Barrido de revisiones periódicas y mantenimiento de políticas",
		Before: loadRuntime,
		Commands: []*cli.Command{
			{
				Name:  "review-sweep",
				Usage: "Procesa las revisiones de intervalo fijo vencidas y consolida las órdenes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Fecha del barrido (YYYY-MM-DD); vacío = hoy en SCHEDULER_TIMEZONE bajo candado",
					},
				},
				Action: runReviewSweep,
			},
			{
				Name:   "recompute",
				Usage:  "Recalcula los campos derivados de todos los productos activos",
				Action: runRecompute,
			},
			{
				Name:   "migrate",
				Usage:  "Aplica las migraciones de PostgreSQL",
				Action: runMigrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runReviewSweep(c *cli.Context) error {
	rt := fromContext(c)
	svc, err := bootstrap.Open(c.Context, rt.cfg, rt.log)
	if err != nil {
		return err
	}
	defer svc.Close()

	loc := rt.cfg.Scheduler.Location()
	if raw := c.String("date"); raw != "" {
		date, err := time.ParseInLocation(time.DateOnly, raw, loc)
		if err != nil {
			return fmt.Errorf("--date debe tener formato YYYY-MM-DD: %w", err)
		}
		r, err := svc.Replenishment.ProcessDueReviews(c.Context, date)
		if err != nil {
			return err
		}
		return printJSON(r.Response())
	}
	r, err := svc.Replenishment.RunDailySweep(c.Context, loc)
	if err != nil {
		return err
	}
	return printJSON(r.Response())
}

func runRecompute(c *cli.Context) error {
	rt := fromContext(c)
	svc, err := bootstrap.Open(c.Context, rt.cfg, rt.log)
	if err != nil {
		return err
	}
	defer svc.Close()

	out, err := svc.Policy.RecomputeAll(c.Context)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func runMigrate(c *cli.Context) error {
	rt := fromContext(c)
	version, err := postgres.Migrate(c.Context, rt.cfg.DB.ConnectionString())
	if err != nil {
		return err
	}
	rt.log.Info().Uint("schema_version", version).Msg("migraciones aplicadas")
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
