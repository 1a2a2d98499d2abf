package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/de-tools/cost-atlas/pkg/services/validation"
	"github.com/spf13/cobra"
)

const (
	FormatTable = "table"
	FormatText  = "text"
)

// CLI represents the command-line interface
type CLI struct {
	factory  commands.ServiceFactory
	profiles config.Registry
	output   io.Writer
	profile  string
	format   string
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory  commands.ServiceFactory
	Profiles config.Registry
	Output   io.Writer
	// ErrOutput receives progress and errors. Defaults to stderr.
	ErrOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}

	cli := &CLI{
		factory:  opts.Factory,
		profiles: opts.Profiles,
		output:   opts.Output,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.ErrOutput)
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "cost",
		Short:             "AWS cost analysis tool",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.checkFlags,
	}
	cmd.PersistentFlags().StringVarP(&cli.profile, "profile", "p", "", "AWS shared config profile to authenticate with")
	cmd.PersistentFlags().StringVar(&cli.format, "format", FormatTable, "Output format: table or text")

	reporter := &lazyReporter{cli: cli}
	validator := validation.New()

	cmd.AddCommand(commands.NewAnalyzeCmd(&cli.profile, cli.factory, validator, reporter))
	cmd.AddCommand(commands.NewRecommendationsCmd(&cli.profile, cli.factory, validator, reporter))
	cmd.AddCommand(commands.NewNormalizeCmd(reporter))
	cmd.AddCommand(commands.NewProfilesCmd(cli.profiles))

	return cmd
}

func (cli *CLI) checkFlags(cmd *cobra.Command, _ []string) error {
	if cli.format != FormatTable && cli.format != FormatText {
		return fmt.Errorf("unsupported format %q, expected %s or %s", cli.format, FormatTable, FormatText)
	}
	if cli.profile == "" || cli.profiles == nil {
		return nil
	}
	if _, err := cli.profiles.GetProfile(cmd.Context(), cli.profile); err != nil {
		return fmt.Errorf("unknown AWS profile %q: %w", cli.profile, err)
	}
	return nil
}

// lazyReporter picks the reporter once flags are parsed.
type lazyReporter struct {
	cli *CLI
}

func (r *lazyReporter) Handle(report *domain.Report) error {
	if r.cli.format == FormatText {
		return NewReporter(r.cli.output).Handle(report)
	}
	return export.NewReporter(r.cli.output).Handle(report)
}
