package cli

import (
	"bytes"
	"fmt"

	"github.com/ralt/rpmfiles/internal/analyzer"
	"github.com/ralt/rpmfiles/internal/archive"
	"github.com/ralt/rpmfiles/internal/config"
	"github.com/ralt/rpmfiles/internal/extractor"
	"github.com/ralt/rpmfiles/internal/models"
	"github.com/ralt/rpmfiles/internal/output"
	"github.com/ralt/rpmfiles/internal/signer"
	"github.com/ralt/rpmfiles/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries the resolved configuration to subcommands
type app struct {
	configFile string
	cfg        *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "rpmfiles",
		Short: "Extract per-file metadata and dependencies from RPM payloads",
		Long: `rpmfiles reads an RPM payload archive (cpio or tar, optionally
compressed with gzip, zstd or xz), computes per-file metadata the way
rpmbuild records it, and completes a package's dependency lists with the
entries rpmbuild adds on its own.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load(config.LoadOptions{
				ConfigFile: a.configFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}
			a.cfg = cfg

			logrus.SetLevel(cfg.Level())
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			if path != "" {
				logrus.Debugf("Using config file %s", path)
			}
			logrus.Debugf("Format %s, payload compressor %s", cfg.OutputFormat(), cfg.PayloadCompressor())
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&a.configFile, "config", "", "Config file (default ./rpmfiles.toml or $XDG_CONFIG_HOME/rpmfiles/rpmfiles.toml)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.StringP("format", "f", "", "Output format (text, json, yaml, xml)")
	flags.StringP("output", "o", "", "Write the report to this file instead of stdout")
	flags.Bool("gzip", false, "Gzip the xml output")
	flags.StringP("gpg-key", "k", "", "Path to GPG private key; signs the report into <output>.asc")
	flags.StringP("gpg-passphrase", "p", "", "GPG key passphrase")

	rootCmd.AddCommand(NewFilesCmd(a))
	rootCmd.AddCommand(NewDepsCmd(a))
	rootCmd.AddCommand(NewInspectCmd(a))
	rootCmd.AddCommand(NewCheckCmd(a))

	return rootCmd
}

// extractFiles drains a payload cursor into file records
func extractFiles(c archive.Cursor) ([]models.FileRecord, error) {
	ex, err := extractor.New(analyzer.NewMagicAnalyzer())
	if err != nil {
		return nil, err
	}
	return ex.ExtractAll(c)
}

// extractPath opens the payload archive at path and extracts it
func extractPath(path string) ([]models.FileRecord, error) {
	logrus.Infof("Reading payload %s", path)

	c, err := archive.Open(path)
	if err != nil {
		return nil, &models.Error{Type: models.ErrArchiveRead, Entry: path, Err: err}
	}
	defer c.Close()

	return extractFiles(c)
}

// emit renders pkg and writes it to stdout or the configured output,
// signing it when a key is configured
func (a *app) emit(cmd *cobra.Command, pkg *models.PackageMetadata, opts output.Options) error {
	opts.Repodata.Gzip = a.cfg.Gzip

	var buf bytes.Buffer
	if err := output.Render(&buf, a.cfg.OutputFormat(), pkg, opts); err != nil {
		return err
	}

	if a.cfg.Output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if err := utils.WriteFile(a.cfg.Output, buf.Bytes(), 0644); err != nil {
		return &models.Error{Type: models.ErrFileOp, Entry: a.cfg.Output, Err: fmt.Errorf("failed to write report: %w", err)}
	}
	logrus.Infof("Report written to %s", a.cfg.Output)

	if a.cfg.GPGKey == "" {
		return nil
	}

	s, err := signer.NewGPGSigner(a.cfg.GPGKey, a.cfg.GPGPassphrase)
	if err != nil {
		return &models.Error{
			Type: models.ErrSigning,
			Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
		}
	}
	sigPath, err := signer.WriteSignature(s, a.cfg.Output, buf.Bytes())
	if err != nil {
		return err
	}
	logrus.Infof("Signature written to %s", sigPath)
	return nil
}
