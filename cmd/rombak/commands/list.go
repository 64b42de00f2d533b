package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/rombak/internal/backup"
	"github.com/thoreinstein/rombak/internal/errors"
)

var (
	listDir         string
	listJSON        bool
	listInteractive bool
)

// findBackup picks one backup interactively. Tests replace it.
var findBackup = func(summaries []backup.Summary) (int, error) {
	return fuzzyfinder.Find(
		summaries,
		func(i int) string {
			return fmt.Sprintf("%s (%s)", summaries[i].Name, summaries[i].Targets)
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			var b strings.Builder
			writeSummary(&b, &summaries[i])
			return b.String()
		}),
	)
}

func init() {
	listCmd.Flags().StringVarP(&listDir, "backupdir", "d", "", "directory holding backups (default from config)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().BoolVarP(&listInteractive, "interactive", "i", false, "pick a backup and show its details")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available backups",
	Long: `List the backups in the backup directory, most recent first.

Each backup shows the targets it contains and its total size. Partition
archives are listed with their compression and whether they are split.`,
	Example: `  # List backups
  rombak list

  # List backups on the external card as JSON
  rombak list -d /raw/extsd/backups --json

  # Pick a backup and show its details
  rombak list -i

  See Also: rombak backup, rombak restore`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// listOutput is one backup in JSON output.
type listOutput struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	CreatedAt   time.Time       `json:"created_at"`
	ROM         string          `json:"rom,omitempty"`
	Targets     []string        `json:"targets"`
	Size        int64           `json:"size"`
	Archives    []archiveOutput `json:"archives"`
	RombakVersion string          `json:"rombak_version,omitempty"`
}

type archiveOutput struct {
	Name        string `json:"name"`
	Compression string `json:"compression"`
	Split       bool   `json:"split"`
	Size        int64  `json:"size"`
}

func runList(cmd *cobra.Command, _ []string) error {
	if listDir == "" {
		listDir = cfg.BackupDir
	}
	return runListWithWriter(cmd.OutOrStdout())
}

func runListWithWriter(w io.Writer) error {
	summaries, err := backup.List(listDir)
	if err != nil && !errors.Is(err, backup.ErrNoBackupsFound) {
		return errors.NewFailure(err)
	}

	switch {
	case listJSON:
		return outputListJSON(w, summaries)
	case len(summaries) == 0:
		fmt.Fprintf(w, "No backups found in %s\n", listDir)
		return nil
	case listInteractive:
		return runInteractiveList(w, summaries)
	default:
		return outputListTabular(w, summaries)
	}
}

func outputListJSON(w io.Writer, summaries []backup.Summary) error {
	output := make([]listOutput, 0, len(summaries))
	for _, s := range summaries {
		o := listOutput{
			Name:      s.Name,
			Path:      s.Path,
			CreatedAt: s.CreatedAt,
			Targets:   targetNames(&s),
			Size:      s.Size,
			Archives:  make([]archiveOutput, 0, len(s.Archives)),
		}
		if s.Manifest != nil {
			o.ROM = s.Manifest.ROM
			o.RombakVersion = s.Manifest.RombakVersion
		}
		for _, a := range s.Archives {
			o.Archives = append(o.Archives, archiveOutput{
				Name:        a.Name,
				Compression: a.Compression.Name(),
				Split:       a.Split,
				Size:        a.Size,
			})
		}
		output = append(output, o)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputListTabular(w io.Writer, summaries []backup.Summary) error {
	fmt.Fprintf(w, "%sBackups in %s%s\n", colorBold, listDir, colorReset)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  NAME\tROM\tCREATED\tTARGETS\tSIZE")
	for i := range summaries {
		s := &summaries[i]
		romID := "-"
		if s.Manifest != nil {
			romID = s.Manifest.ROM
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n",
			truncate(s.Name, 32),
			romID,
			humanize.Time(s.CreatedAt),
			strings.Join(targetNames(s), ","),
			humanize.Bytes(uint64(max(s.Size, 0))),
		)
	}
	return tw.Flush()
}

func runInteractiveList(w io.Writer, summaries []backup.Summary) error {
	idx, err := findBackup(summaries)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil
		}
		return errors.Wrap(err, "interactive selection failed")
	}
	writeSummary(w, &summaries[idx])
	return nil
}

// writeSummary prints the details of one backup.
func writeSummary(w io.Writer, s *backup.Summary) {
	fmt.Fprintf(w, "%s%s%s\n", colorCyan, s.Name, colorReset)
	fmt.Fprintf(w, "Path:    %s\n", s.Path)
	fmt.Fprintf(w, "Created: %s\n", s.CreatedAt.Format(time.RFC3339))
	if s.Manifest != nil {
		fmt.Fprintf(w, "ROM:     %s\n", s.Manifest.ROM)
	}
	fmt.Fprintf(w, "Targets: %s\n", strings.Join(targetNames(s), ", "))
	fmt.Fprintf(w, "Size:    %s\n", humanize.Bytes(uint64(max(s.Size, 0))))
	for _, a := range s.Archives {
		split := ""
		if a.Split {
			split = colorYellow + " (split)" + colorReset
		}
		fmt.Fprintf(w, "  %s%s%s %s%s\n", colorGray, a.Filename(), colorReset,
			humanize.Bytes(uint64(max(a.Size, 0))), split)
	}
}

func targetNames(s *backup.Summary) []string {
	ts := s.Targets.Targets()
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.String()
	}
	return names
}
