package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type AnalyzeCmd struct {
	accountFlags
	profile   *string
	factory   ServiceFactory
	validator CredentialsValidator
	reporter  Reporter
	now       func() time.Time
}

func NewAnalyzeCmd(profile *string, factory ServiceFactory, validator CredentialsValidator, reporter Reporter) *cobra.Command {
	ac := &AnalyzeCmd{
		profile:   profile,
		factory:   factory,
		validator: validator,
		reporter:  reporter,
		now:       time.Now,
	}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the month-to-date cost of an account",
		RunE:  ac.run,
	}
	ac.register(cmd)

	return cmd
}

func (ac *AnalyzeCmd) run(cmd *cobra.Command, _ []string) error {
	creds := ac.credentials()
	if err := ac.validator.Credentials(creds); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ac.timeout)
	defer cancel()

	svc, err := ac.factory(ctx, *ac.profile)
	if err != nil {
		return fmt.Errorf("failed to create cost service: %w", err)
	}

	s := startSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Analyzing account %s ...", creds.AccountID))
	analysis, err := svc.GetComprehensiveAnalysis(ctx, creds)
	s.Stop()
	if err != nil {
		return fmt.Errorf("failed to analyze account %s: %w", creds.AccountID, err)
	}

	return ac.reporter.Handle(export.AnalysisReport(creds.AccountID, analysis, ac.now()))
}
