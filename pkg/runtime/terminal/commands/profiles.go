package commands

import (
	"cmp"
	"fmt"
	"text/tabwriter"

	"github.com/de-tools/cost-atlas/pkg/services/config"
	"github.com/spf13/cobra"
)

type ProfilesCmd struct {
	registry config.Registry
}

func NewProfilesCmd(registry config.Registry) *cobra.Command {
	pc := &ProfilesCmd{registry: registry}
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles of the AWS shared config files",
		RunE:  pc.run,
	}
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	profiles, err := pc.registry.GetProfiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if len(profiles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No AWS profiles found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tREGION\tROLE")
	for _, p := range profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Type, cmp.Or(p.Region, "-"), cmp.Or(p.RoleARN, "-"))
	}
	return w.Flush()
}
