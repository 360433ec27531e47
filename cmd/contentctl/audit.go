package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"articleforge/internal/audit"
	"articleforge/internal/autofix"
	"articleforge/internal/providers/prompt"
)

func (c *cli) auditCmd() *cobra.Command {
	var (
		in      auditInputs
		asJSON  bool
		minimum int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Score a markdown draft against the audit rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := in.load(c.cfg.DefaultLanguage)
			if err != nil {
				return err
			}
			report := audit.New(audit.WithLogger(c.logger)).Audit(input)
			report.Issues = autofix.ConvertToAuditIssues(input.Draft, report.Results)

			if asJSON {
				if err := c.printJSON(report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(c.out, "score: %d (%s)\n", report.Score, report.Language)
				for _, r := range report.Results {
					if r.IsPassing {
						continue
					}
					fmt.Fprintf(c.out, "FAIL %-28s %s\n", r.RuleName, r.Details)
				}
			}
			if minimum > 0 && report.Score < minimum {
				return fmt.Errorf("score %d below minimum %d", report.Score, minimum)
			}
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full report as JSON")
	cmd.Flags().IntVar(&minimum, "min-score", 0, "exit non-zero when the score is below this value")
	return cmd
}

func (c *cli) autofixCmd() *cobra.Command {
	var (
		in     auditInputs
		output string
	)
	cmd := &cobra.Command{
		Use:   "autofix",
		Short: "Audit a draft, apply automatic fixes and write the patched draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := in.load(c.cfg.DefaultLanguage)
			if err != nil {
				return err
			}
			engine := audit.New(audit.WithLogger(c.logger))
			issues := autofix.ConvertToAuditIssues(input.Draft, engine.Run(input))

			gen := c.generator(cmd.Context(), input.Business)
			article := prompt.ArticleFrom(input.Brief, input.Business, input.Language)
			res := autofix.NewFixer(gen, c.logger).BatchApplyAutoFixes(cmd.Context(), input.Draft, issues, article)

			input.Draft = res.Draft
			after := engine.Audit(input)

			dest := output
			if dest == "" {
				dest = in.draft
			}
			if err := os.WriteFile(dest, []byte(res.Draft), 0o644); err != nil {
				return fmt.Errorf("write draft: %w", err)
			}
			fmt.Fprintf(c.out, "applied %d fixes, %d failed; score now %d; wrote %s\n", len(res.Applied), len(res.Failed), after.Score, dest)
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&output, "out", "o", "", "output path (defaults to overwriting --draft)")
	return cmd
}
