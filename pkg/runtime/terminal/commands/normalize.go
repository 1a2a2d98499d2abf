package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/cost-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/cost-atlas/pkg/services/normalize"
	"github.com/spf13/cobra"
)

type NormalizeCmd struct {
	file     string
	reporter Reporter
}

// NewNormalizeCmd merges a JSON array of loosely shaped resource records offline.
func NewNormalizeCmd(reporter Reporter) *cobra.Command {
	nc := &NormalizeCmd{reporter: reporter}
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize resource records from a JSON file",
		RunE:  nc.run,
	}

	cmd.Flags().StringVarP(&nc.file, "file", "f", "", "Path to a JSON array of resource records")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (nc *NormalizeCmd) run(_ *cobra.Command, _ []string) error {
	data, err := os.ReadFile(nc.file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", nc.file, err)
	}

	records, err := normalize.DecodeLegacy(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", nc.file, err)
	}

	title := fmt.Sprintf("Normalized resources from %s", filepath.Base(nc.file))
	return nc.reporter.Handle(export.ResourcesReport(title, normalize.Normalize(records)))
}
