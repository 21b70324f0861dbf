package cli

import (
	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/output"
	"github.com/spf13/cobra"
)

// NewFilesCmd creates the files command
func NewFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files PAYLOAD",
		Short: "List the file records of a payload archive",
		Long: `Reads a cpio or tar payload, optionally compressed, and prints one
record per entry: mode, owner, size, SHA-256 digest and name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := extractPath(args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, &models.PackageMetadata{Files: records}, output.Options{FilesOnly: true})
		},
	}
}
