package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/siherrmann/threadrag"
	"github.com/siherrmann/threadrag/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats of the ask command
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func newAskCommand(a *app) *cobra.Command {
	var outside bool
	var format string

	cmd := &cobra.Command{
		Use:   "ask <thread-id> <question>",
		Short: "Ask a single question within a thread",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown format %q, expected text, json or yaml", format)
			}

			return a.withThreadRAG(cmd.Context(), func(r *threadrag.ThreadRAG) error {
				sessionID, err := r.StartSession(args[0])
				if err != nil {
					return err
				}
				result, err := r.Ask(cmd.Context(), sessionID, strings.Join(args[1:], " "), outside)
				if err != nil {
					return err
				}
				return writeResult(cmd.OutOrStdout(), result, format)
			})
		},
	}

	cmd.Flags().BoolVar(&outside, "outside", false, "Search the whole corpus instead of the thread")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format (text|json|yaml)")

	return cmd
}

func writeResult(out io.Writer, result *model.AskResult, format string) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(result)
	case formatYAML:
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		encoder.SetIndent(2)
		return encoder.Encode(result)
	default:
		_, err := fmt.Fprintln(out, result.Answer)
		return err
	}
}
