package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/joeyeti/datasworn/internal/content"
	"github.com/joeyeti/datasworn/internal/keysort"
)

var sortCmd = &cobra.Command{
	Use:   "sort [FILE...]",
	Short: "Rewrite JSON documents in canonical key order",
	RunE:  runSort,
}

func init() {
	rootCmd.AddCommand(sortCmd)
	sortCmd.Flags().Bool("in-place", false, "rewrite files instead of printing them")
	sortCmd.Flags().Bool("check", false, "fail if any file is not in canonical order")
}

func runSort(cmd *cobra.Command, args []string) error {
	inPlace, _ := cmd.Flags().GetBool("in-place")
	check, _ := cmd.Flags().GetBool("check")

	if len(args) == 0 {
		args = []string{"-"}
	}

	var unsorted []string
	for _, path := range args {
		in, err := readInput(cmd.InOrStdin(), path)
		if err != nil {
			return err
		}
		out, err := sortDocument(in)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		switch {
		case check:
			if !bytes.Equal(in, out) {
				unsorted = append(unsorted, path)
			}
		case inPlace && path != "-":
			if !bytes.Equal(in, out) {
				if err := content.WriteFile(cmd.Context(), path, out); err != nil {
					return err
				}
			}
		default:
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
		}
	}

	if len(unsorted) > 0 {
		for _, path := range unsorted {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return fmt.Errorf("%d files are not in canonical key order", len(unsorted))
	}
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	var in []byte
	var err error
	if path == "-" {
		in, err = io.ReadAll(stdin)
	} else {
		in, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return in, nil
}

// sortDocument re-encodes a JSON document with two-space indentation and
// canonical key order. Numbers are kept as written.
func sortDocument(in []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(in))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	out, err := keysort.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
