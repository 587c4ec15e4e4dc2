package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tokentrim/internal/usecase"
)

var (
	expandMap    string
	expandOutput string
)

var expandCmd = &cobra.Command{
	Use:   "expand <file|->",
	Short: "Replace hash references with their patterns",
	Long: `Expand #hash references in compressed code using a decode table.

The --map file may hold a bare {"#key": "pattern"} object or a full
report written by "tokentrim compress --json".

Example:
  tokentrim compress --json main.py > report.json
  tokentrim compress --level compressed main.py | tokentrim expand --map report.json -`,
	Args: cobra.ExactArgs(1),
	RunE: runExpand,
}

func init() {
	rootCmd.AddCommand(expandCmd)
	expandCmd.Flags().StringVarP(&expandMap, "map", "m", "", "decode table or report JSON (required)")
	expandCmd.Flags().StringVarP(&expandOutput, "output", "o", "", "write output to a file")
	_ = expandCmd.MarkFlagRequired("map")
}

func runExpand(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(expandMap)
	if err != nil {
		return fmt.Errorf("failed to read decode map: %w", err)
	}
	decodeMap, err := parseDecodeMap(data)
	if err != nil {
		return err
	}

	var code []byte
	if args[0] == "-" {
		code, err = io.ReadAll(cmd.InOrStdin())
	} else {
		code, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	expanded := usecase.ExpandHashReferences(string(code), decodeMap)
	return writeOutput(cmd.OutOrStdout(), expandOutput, []byte(expanded))
}

// parseDecodeMap accepts a bare decode map or a compression report.
func parseDecodeMap(data []byte) (map[string]string, error) {
	var report struct {
		HashTable *struct {
			DecodeMap map[string]string `json:"decodeMap"`
		} `json:"hashTable"`
	}
	if err := json.Unmarshal(data, &report); err == nil && report.HashTable != nil {
		return report.HashTable.DecodeMap, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse decode map: %w", err)
	}
	return m, nil
}
