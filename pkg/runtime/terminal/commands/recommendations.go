package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/spf13/cobra"
)

type RecommendationsCmd struct {
	accountFlags
	profile   *string
	factory   ServiceFactory
	validator CredentialsValidator
	reporter  Reporter
}

func NewRecommendationsCmd(profile *string, factory ServiceFactory, validator CredentialsValidator, reporter Reporter) *cobra.Command {
	rc := &RecommendationsCmd{
		profile:   profile,
		factory:   factory,
		validator: validator,
		reporter:  reporter,
	}
	cmd := &cobra.Command{
		Use:   "recommendations",
		Short: "List cost optimization recommendations for an account",
		RunE:  rc.run,
	}
	rc.register(cmd)

	return cmd
}

func (rc *RecommendationsCmd) run(cmd *cobra.Command, _ []string) error {
	creds := rc.credentials()
	if err := rc.validator.Credentials(creds); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rc.timeout)
	defer cancel()

	svc, err := rc.factory(ctx, *rc.profile)
	if err != nil {
		return fmt.Errorf("failed to create cost service: %w", err)
	}

	s := startSpinner(cmd.ErrOrStderr(), "Fetching recommendations ...")
	recs, err := svc.GetRecommendations(ctx, creds)
	s.Stop()
	if err != nil {
		return fmt.Errorf("failed to list recommendations: %w", err)
	}

	return rc.reporter.Handle(export.RecommendationsReport(creds.AccountID, recs))
}
