package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"articleforge/internal/adapter/repo"
	"articleforge/internal/audit"
	"articleforge/internal/domain"
	"articleforge/internal/pipeline"
	"articleforge/internal/providers/textgen"
)

// generator returns a retrying dispatcher for bc over the configured backends.
func (c *cli) generator(ctx context.Context, bc domain.BusinessContext) textgen.Generator {
	reg := textgen.BuildRegistry(ctx, c.cfg, nil, c.logger)
	return textgen.WithRetry(reg.Resolve(bc), c.cfg.MaxAttempts, c.cfg.RetryBaseDelay, textgen.SleepContext)
}

func (c *cli) runCmd() *cobra.Command {
	var (
		briefPath    string
		businessPath string
		dbPath       string
		jobID        string
		output       string
		lang         string
		template     string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the multi-pass pipeline on a local SQLite store",
		Long: "Creates a job from --brief and runs all passes. Passing --job resumes an\n" +
			"earlier job from its first incomplete pass.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if briefPath == "" && jobID == "" {
				return errors.New("either --brief or --job is required")
			}
			ctx := cmd.Context()
			store, err := repo.OpenSQLite(ctx, dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if jobID == "" {
				job := &domain.GenerationJob{}
				if err := readJSON(briefPath, &job.Brief); err != nil {
					return fmt.Errorf("read brief: %w", err)
				}
				if businessPath != "" {
					if err := readJSON(businessPath, &job.BusinessContext); err != nil {
						return fmt.Errorf("read business context: %w", err)
					}
				}
				if err := job.Brief.Validate(); err != nil {
					return err
				}
				if err := store.CreateJob(ctx, job); err != nil {
					return err
				}
				jobID = job.ID
				fmt.Fprintf(c.errOut, "job %s created\n", jobID)
			}

			progress := func(key string, completed, total int) {
				fmt.Fprintf(c.errOut, "  %s (%d/%d)\n", key, completed, total)
			}
			opts := pipeline.RunOptions{Language: lang, OnProgress: progress}
			if template != "" {
				if opts.Template, err = loadTemplate(template); err != nil {
					return err
				}
			}

			reg := textgen.BuildRegistry(ctx, c.cfg, nil, c.logger)
			engine := audit.New(audit.WithLogger(c.logger))
			orch := pipeline.NewOrchestrator(store, reg, engine, c.logger, pipeline.ConfigFrom(c.cfg))
			job, err := orch.Run(ctx, jobID, opts)
			if err != nil {
				if errors.Is(err, domain.ErrAborted) {
					fmt.Fprintf(c.errOut, "job %s interrupted; resume with --job %s\n", jobID, jobID)
				}
				return err
			}

			if output != "" {
				if err := os.WriteFile(output, []byte(job.DraftContent), 0o644); err != nil {
					return fmt.Errorf("write article: %w", err)
				}
			} else {
				fmt.Fprint(c.out, job.DraftContent)
			}
			if job.FinalAuditScore != nil {
				fmt.Fprintf(c.errOut, "job %s completed, audit score %d\n", jobID, *job.FinalAuditScore)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&briefPath, "brief", "", "content brief JSON")
	f.StringVar(&businessPath, "business", "", "business context JSON")
	f.StringVar(&dbPath, "db", "pipeline.db", "SQLite database path")
	f.StringVar(&jobID, "job", "", "resume an existing job")
	f.StringVarP(&output, "out", "o", "", "write the final article here instead of stdout")
	f.StringVar(&lang, "lang", "", "article language")
	f.StringVar(&template, "template", "", "template YAML file or built-in template name for the audit pass")
	return cmd
}
