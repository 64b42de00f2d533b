package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/thoreinstein/rombak/cmd"
	"github.com/thoreinstein/rombak/internal/errors"
)

var (
	genDocDir    string
	genDocFormat string
)

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate man pages or Markdown reference for the CLI",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		if genDocDir == "" {
			return errors.NewUserError(errors.New("output directory is required"), "Pass it with --dir")
		}
		if err := os.MkdirAll(genDocDir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}

		var err error
		switch genDocFormat {
		case "man":
			header := &doc.GenManHeader{
				Title:   "ROMBAK",
				Section: "8",
				Source:  "rombak " + cmd.Version,
			}
			err = doc.GenManTree(rootCmd, header, genDocDir)
		case "markdown":
			err = doc.GenMarkdownTree(rootCmd, genDocDir)
		default:
			return errors.NewUserError(errors.Newf("invalid format %q", genDocFormat),
				"Use --format man or --format markdown")
		}
		if err != nil {
			return errors.Wrapf(err, "generating %s", genDocFormat)
		}

		fmt.Fprintf(c.OutOrStdout(), "Documentation generated in %s\n", genDocDir)
		return nil
	},
}

func init() {
	genDocCmd.Flags().StringVarP(&genDocDir, "dir", "d", "", "output directory for documentation")
	genDocCmd.Flags().StringVar(&genDocFormat, "format", "man", "output format: man, markdown")
	rootCmd.AddCommand(genDocCmd)
}
