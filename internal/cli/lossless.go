package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tokentrim/internal/adapter/lossless"
	"tokentrim/internal/domain"
)

var (
	losslessFormat string
	losslessOutput string
	losslessOutDir string
)

var losslessCmd = &cobra.Command{
	Use:   "lossless",
	Short: "Encode and decode byte-exact bundles",
	Long: `The lossless codec replaces repeated line bodies with short keys.
Decoding a bundle restores every file byte for byte.`,
}

var losslessEncodeCmd = &cobra.Command{
	Use:   "encode <file|dir|-> [...]",
	Short: "Encode files into a lossless bundle",
	Long: `Encode files into a lossless bundle.

Formats:
  json       bundle JSON (indentation follows lossless.indent)
  envelope   compact JSON between <<TTLB:1>> sentinels
  annotated  decoding instructions followed by the JSON
  zstd       compact JSON in a zstd frame`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLosslessEncode,
}

var losslessDecodeCmd = &cobra.Command{
	Use:   "decode <bundle|->",
	Short: "Restore the files of a lossless bundle",
	Long: `Restore the files of a lossless bundle in any of the encode formats.

Without --out-dir the restored text is written to stdout; several files
are separated by "# === name ===" headers.`,
	Args: cobra.ExactArgs(1),
	RunE: runLosslessDecode,
}

func init() {
	rootCmd.AddCommand(losslessCmd)
	losslessCmd.AddCommand(losslessEncodeCmd)
	losslessCmd.AddCommand(losslessDecodeCmd)

	losslessEncodeCmd.Flags().StringVarP(&losslessFormat, "format", "f", "json", "output format: json, envelope, annotated, zstd")
	losslessEncodeCmd.Flags().StringVarP(&losslessOutput, "output", "o", "", "write the bundle to a file")
	losslessDecodeCmd.Flags().StringVar(&losslessOutDir, "out-dir", "", "write restored files under this directory")
}

func runLosslessEncode(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	svc := newServices(cfg, nil)

	files, err := loadSources(svc, args, cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	bundle := svc.lossless.Encode(files, time.Now())
	data, err := serialiseBundle(bundle, losslessFormat, cfg.Lossless.Indent)
	if err != nil {
		return err
	}

	for _, f := range bundle.Files {
		GetLogger().Debug("encoded",
			zap.String("file", f.Filename),
			zap.Int("original_size", f.OriginalSize),
			zap.Int("encoded_size", f.EncodedSize))
	}
	return writeOutput(cmd.OutOrStdout(), losslessOutput, data)
}

// serialiseBundle writes b in one of the bundle formats.
func serialiseBundle(b domain.LosslessBundle, format string, indent bool) ([]byte, error) {
	switch format {
	case "json", "":
		data, err := lossless.MarshalBundle(b, indent)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "envelope":
		s, err := lossless.EncodeEnvelope(b)
		if err != nil {
			return nil, err
		}
		return []byte(s + "\n"), nil
	case "annotated":
		var buf bytes.Buffer
		if err := lossless.WriteAnnotated(&buf, b); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case "zstd":
		return lossless.CompressBundle(b)
	default:
		return nil, fmt.Errorf("unknown bundle format %q", format)
	}
}

func runLosslessDecode(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	bundle, err := lossless.ParseBundle(data)
	if err != nil {
		return fmt.Errorf("failed to parse bundle: %w", err)
	}

	svc := newServices(GetConfig(), nil)
	files, err := svc.lossless.Decode(bundle)
	if err != nil {
		return err
	}

	if losslessOutDir != "" {
		return writeSourceFiles(losslessOutDir, files)
	}
	return printSourceFiles(cmd.OutOrStdout(), files)
}

// writeSourceFiles restores files under dir. Names that would escape dir
// are rejected.
func writeSourceFiles(dir string, files []domain.SourceFile) error {
	for _, f := range files {
		rel := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("refusing to write %q outside %s", f.Name, dir)
		}
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(f.Text), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return nil
}

func printSourceFiles(w io.Writer, files []domain.SourceFile) error {
	if len(files) == 1 {
		_, err := io.WriteString(w, files[0].Text)
		return err
	}
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# === %s ===\n", f.Name)
		b.WriteString(f.Text)
		if !strings.HasSuffix(f.Text, "\n") {
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
