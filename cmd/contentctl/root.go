package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
	"articleforge/internal/infra"
)

// cli carries state shared by the subcommands.
type cli struct {
	out      io.Writer
	errOut   io.Writer
	logLevel string
	cfg      *infra.Config
	logger   infra.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "contentctl",
		Short:         "Generate, audit and repair articles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := infra.LoadConfig()
			if err != nil {
				return err
			}
			c.cfg = cfg
			level := c.logLevel
			if level == "" {
				level = cfg.LogLevel
			}
			if level == "" {
				level = "warn"
			}
			c.logger = infra.NewLogger("cli", level).Output(errOut)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(c.auditCmd(), c.runCmd(), c.autofixCmd())
	return root
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// auditInputs are the flags shared by audit and autofix.
type auditInputs struct {
	draft    string
	brief    string
	business string
	template string
	triples  string
	lang     string
}

func (in *auditInputs) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&in.draft, "draft", "", "markdown draft to audit (required)")
	f.StringVar(&in.brief, "brief", "", "content brief JSON")
	f.StringVar(&in.business, "business", "", "business context JSON")
	f.StringVar(&in.template, "template", "", "template YAML file or built-in template name")
	f.StringVar(&in.triples, "triples", "", "semantic triples JSON")
	f.StringVar(&in.lang, "lang", "", "audit language")
	_ = cmd.MarkFlagRequired("draft")
}

func (in *auditInputs) load(defaultLanguage string) (audit.Input, error) {
	var out audit.Input
	draft, err := os.ReadFile(in.draft)
	if err != nil {
		return out, fmt.Errorf("read draft: %w", err)
	}
	out.Draft = string(draft)
	if in.brief != "" {
		if err := readJSON(in.brief, &out.Brief); err != nil {
			return out, fmt.Errorf("read brief: %w", err)
		}
	}
	if in.business != "" {
		if err := readJSON(in.business, &out.Business); err != nil {
			return out, fmt.Errorf("read business context: %w", err)
		}
	}
	if in.triples != "" {
		if err := readJSON(in.triples, &out.Triples); err != nil {
			return out, fmt.Errorf("read triples: %w", err)
		}
	}
	if in.template != "" {
		out.Template, err = loadTemplate(in.template)
		if err != nil {
			return out, err
		}
	}
	out.Language = domain.ResolveLanguage(in.lang, out.Brief, out.Business, defaultLanguage)
	return out, nil
}

// loadTemplate accepts a path or the name of a built-in template.
func loadTemplate(ref string) (*audit.TemplateSpec, error) {
	if strings.HasSuffix(ref, ".yaml") || strings.HasSuffix(ref, ".yml") || strings.ContainsRune(ref, os.PathSeparator) {
		return audit.LoadTemplate(ref)
	}
	return audit.BuiltinTemplate(ref)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
