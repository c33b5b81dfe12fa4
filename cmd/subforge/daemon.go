package main

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"subforge/internal/generator"
	"subforge/internal/logger"
)

var daemonOnce bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Import and publish on the configured schedule",
	Long: `Every tick of schedule.cron runs all configured collectors, renders the
whole store in schedule.format and sends it to schedule.publishers. With
--once a single cycle runs immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		gen, err := generator.New(a.cfg.Generator.TemplatesDir)
		if err != nil {
			return err
		}
		if daemonOnce {
			return runCycle(cmd.Context(), a, gen)
		}
		if a.cfg.Schedule.Cron == "" {
			return fmt.Errorf("schedule.cron is not set")
		}

		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		_, err = c.AddFunc(a.cfg.Schedule.Cron, func() {
			if err := runCycle(cmd.Context(), a, gen); err != nil {
				logger.Log.Errorf("Cycle failed: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", a.cfg.Schedule.Cron, err)
		}

		logger.Log.Infof("Scheduler started (%s)", a.cfg.Schedule.Cron)
		c.Start()
		<-cmd.Context().Done()
		logger.Log.Info("Stopping scheduler, waiting for the running cycle")
		<-c.Stop().Done()
		return nil
	},
}

// runCycle is one import, render and publish pass over the whole store.
func runCycle(ctx context.Context, a *app, gen *generator.Generator) error {
	jobs := importJobs(a.cfg, nil, nil, nil)
	t := totals(runImport(ctx, a, jobs, nil, nil))
	logger.Log.Infof("Imported from %d sources: %d added, %d duplicate, %d invalid, %d unsupported",
		len(jobs), t.report.Added, t.report.SkippedDuplicate,
		t.result.Invalid+t.report.SkippedInvalid, t.result.Unsupported)

	proxies, err := a.store.Proxies()
	if err != nil {
		return err
	}
	doc, err := render(gen, a.cfg, proxies, renderOptions{format: a.cfg.Schedule.Format})
	if err != nil {
		return err
	}
	return publish(ctx, a.cfg, doc, a.cfg.Schedule.Publishers, nil)
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonOnce, "once", false, "Run one cycle now and exit")
	rootCmd.AddCommand(daemonCmd)
}
