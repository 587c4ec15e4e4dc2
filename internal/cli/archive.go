package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	archiveName   string
	archiveOutDir string
	archiveFormat string
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Keep lossless bundles in the project archive",
	Long: `Store, list, restore and remove lossless bundles in the bbolt
archive under .tokentrim/archive.db (see archive.path in the config).

Examples:
  tokentrim archive put ./src --name release-1
  tokentrim archive list
  tokentrim archive get release-1 --out-dir restored/`,
}

var archivePutCmd = &cobra.Command{
	Use:   "put <file|dir|-> [...]",
	Short: "Encode files and archive the bundle",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runArchivePut,
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <id|name>",
	Short: "Restore an archived bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveGet,
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived bundles, newest first",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

var archiveRmCmd = &cobra.Command{
	Use:   "rm <id|name>",
	Short: "Remove an archived bundle",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchiveRm,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archivePutCmd, archiveGetCmd, archiveListCmd, archiveRmCmd)

	archivePutCmd.Flags().StringVarP(&archiveName, "name", "n", "", "bundle name (default is the first input's base name)")
	archiveGetCmd.Flags().StringVar(&archiveOutDir, "out-dir", "", "write restored files under this directory")
	archiveGetCmd.Flags().StringVarP(&archiveFormat, "format", "f", "", "print the bundle instead: json, envelope, annotated, zstd")
}

func withArchive(fn func(svc *services) error) error {
	cfg := GetConfig()
	st, err := openArchive(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(newServices(cfg, st))
}

func runArchivePut(cmd *cobra.Command, args []string) error {
	return withArchive(func(svc *services) error {
		files, err := loadSources(svc, args, cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to load sources: %w", err)
		}

		name := archiveName
		if name == "" {
			name = filepath.Base(filepath.Clean(args[0]))
		}

		meta, err := svc.lossless.Archive(name, svc.lossless.Encode(files, time.Now()))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d files, %d → %d bytes stored)\n",
			meta.ID, meta.Name, meta.Files, meta.OriginalSize, meta.StoredSize)
		return nil
	})
}

func runArchiveGet(cmd *cobra.Command, args []string) error {
	return withArchive(func(svc *services) error {
		bundle, err := svc.lossless.Restore(args[0])
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", args[0], err)
		}

		if archiveFormat != "" {
			data, err := serialiseBundle(bundle, archiveFormat, GetConfig().Lossless.Indent)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		files, err := svc.lossless.Decode(bundle)
		if err != nil {
			return err
		}
		if archiveOutDir != "" {
			return writeSourceFiles(archiveOutDir, files)
		}
		return printSourceFiles(cmd.OutOrStdout(), files)
	})
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	return withArchive(func(svc *services) error {
		metas, err := svc.lossless.Archived()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archived bundles.")
			return nil
		}

		var sb strings.Builder
		sb.WriteString(titleStyle.Render(fmt.Sprintf("Archived bundles (%d)", len(metas))))
		sb.WriteString("\n")
		for _, m := range metas {
			fmt.Fprintf(&sb, "%s  %-20s %s  %3d files  %8d → %8d bytes\n",
				m.ID, m.Name, m.CreatedAt.Format(time.RFC3339), m.Files, m.OriginalSize, m.StoredSize)
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), sb.String())
		return err
	})
}

func runArchiveRm(cmd *cobra.Command, args []string) error {
	return withArchive(func(svc *services) error {
		if err := svc.lossless.Forget(args[0]); err != nil {
			return fmt.Errorf("failed to remove %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	})
}
