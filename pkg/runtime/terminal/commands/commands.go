package commands

import (
	"context"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	costsvc "github.com/de-tools/cost-atlas/pkg/services/cost"
	"github.com/spf13/cobra"
)

// ServiceFactory builds the cost service for a shared-config profile. An empty profile uses
// the default credential chain.
type ServiceFactory func(ctx context.Context, profile string) (costsvc.Service, error)

type Reporter interface {
	Handle(report *domain.Report) error
}

type CredentialsValidator interface {
	Credentials(creds domain.Credentials) error
}

// accountFlags are shared by the commands that query a billing account.
type accountFlags struct {
	accountID string
	roleARN   string
	timeout   time.Duration
}

func (f *accountFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.accountID, "account-id", "", "12-digit AWS account id to analyze")
	cmd.Flags().StringVar(&f.roleARN, "role-arn", "", "IAM role to assume in the account")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Minute, "Maximum time to wait for AWS")

	_ = cmd.MarkFlagRequired("account-id")
	_ = cmd.MarkFlagRequired("role-arn")
}

func (f *accountFlags) credentials() domain.Credentials {
	return domain.Credentials{AccountID: f.accountID, RoleARN: f.roleARN}
}

// startSpinner reports progress on w. It stays silent when w is not a terminal.
func startSpinner(w io.Writer, msg string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + msg
	s.Start()
	return s
}
