package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/closespark/hubspot-demand-to-event-synthesis-agent/internal/audit"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit the landing pages behind page insights",
	Long: `Fetches the landing page of each page insight and checks its title, description, headings,
indexing directives and content length. Page paths are resolved against GSC_SITE_URL.

Insights come from --insights, from a replayed --bundle, or from the live sources.`,
	RunE: runAudit,
}

var (
	auditInsights   string
	auditBundle     string
	auditSiteURL    string
	auditMaxPages   int
	auditUseBrowser bool
	auditOut        string
)

func init() {
	auditCmd.Flags().StringVar(&auditInsights, "insights", "", "Path to an insights.json written by synthesize --out")
	auditCmd.Flags().StringVar(&auditBundle, "bundle", "", "Path to a recorded signals.json bundle to synthesize from")
	auditCmd.Flags().StringVar(&auditSiteURL, "site-url", "", "Site URL used to resolve page paths (defaults to GSC_SITE_URL)")
	auditCmd.Flags().IntVar(&auditMaxPages, "max-pages", audit.DefaultMaxPages, fmt.Sprintf("Maximum pages to fetch (capped at %d)", audit.MaxPagesLimit))
	auditCmd.Flags().BoolVar(&auditUseBrowser, "use-browser", false, "Use headless browser for SPA sites (requires Chrome)")
	auditCmd.Flags().StringVarP(&auditOut, "out", "o", "", "Write the audit report as JSON to this file")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, globalOpts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	insights, err := obtainInsights(ctx, cfg, insightInput{InsightsPath: auditInsights, BundlePath: auditBundle}, log)
	if err != nil {
		return err
	}

	siteURL := cfg.GSCSiteURL
	if cmd.Flags().Changed("site-url") {
		siteURL = auditSiteURL
	}
	auditor := &audit.Auditor{
		SiteURL:    siteURL,
		MaxPages:   auditMaxPages,
		UseBrowser: auditUseBrowser,
		Logger:     log,
	}
	report, err := auditor.Run(ctx, insights)
	if err != nil {
		return err
	}

	if auditOut != "" {
		if err := writeJSONFile(auditOut, report); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Audit report written to %s\n", auditOut)
		return nil
	}
	printAuditReport(cmd.OutOrStdout(), report)
	return nil
}

// printAuditReport prints one block per page with its findings.
func printAuditReport(out io.Writer, report *audit.Report) {
	if len(report.Pages) == 0 {
		_, _ = fmt.Fprintln(out, "No page insights to audit")
		return
	}
	_, _ = fmt.Fprintf(out, "Audited %d pages, %d issues\n", len(report.Pages), report.Issues())
	for _, p := range report.Pages {
		target := p.URL
		if target == "" {
			target = p.InsightName
		}
		_, _ = fmt.Fprintf(out, "\n%s (score %.2f)\n", target, p.Score)
		if p.Error != "" {
			_, _ = fmt.Fprintf(out, "  ✗ %s\n", p.Error)
			continue
		}
		if len(p.Findings) == 0 {
			_, _ = fmt.Fprintln(out, "  ✓ no issues")
			continue
		}
		for _, f := range p.Findings {
			_, _ = fmt.Fprintf(out, "  %s %s: %s\n", severityMark(f.Severity), f.Code, f.Message)
		}
	}
}

func severityMark(s audit.Severity) string {
	if s == audit.SeverityError {
		return "✗"
	}
	return "⚠"
}
