package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"audiodesc/internal/api"
)

const maxTagNameWidth = 60

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "query <expression>",
		Short: "Search stored files with a tag filter expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := strings.ToLower(strings.TrimSpace(output))
			if ctx.jsonOutput() {
				format = "json"
			}
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unsupported output format %q (use table, json, or yaml)", output)
			}

			client, err := ctx.client()
			if err != nil {
				return err
			}
			files, err := client.Query(cmd.Context(), args[0])
			if err != nil {
				return wrapClientError(err, client.BaseURL())
			}

			switch format {
			case "json":
				return writeJSON(cmd, files)
			case "yaml":
				return writeYAML(cmd, files)
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No files matched")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"File ID", "Tag Kind", "Tag Name", "Block Tag", "Blocks"},
				queryRows(files),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, json, or yaml")
	return cmd
}

type tagSummary struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type fileSummary struct {
	ID     string       `json:"id"`
	Tags   []tagSummary `json:"tags"`
	Blocks []struct {
		Tags []tagSummary `json:"tags"`
	} `json:"blocks"`
}

// queryRows summarizes each record by its first file tag, the first tag of
// its first block, and its block count.
func queryRows(files api.QueryResponse) [][]string {
	rows := make([][]string, 0, len(files))
	for _, raw := range files {
		var file fileSummary
		if err := json.Unmarshal(raw, &file); err != nil {
			rows = append(rows, []string{"?", "", "unreadable record", "", ""})
			continue
		}
		kind, name := "", ""
		if len(file.Tags) > 0 {
			kind = file.Tags[0].Kind
			name = truncate(file.Tags[0].Name, maxTagNameWidth)
		}
		blockTag := ""
		if len(file.Blocks) > 0 && len(file.Blocks[0].Tags) > 0 {
			tag := file.Blocks[0].Tags[0]
			blockTag = truncate(strings.TrimPrefix(tag.Kind+": "+tag.Name, ": "), maxTagNameWidth)
		}
		rows = append(rows, []string{file.ID, kind, name, blockTag, strconv.Itoa(len(file.Blocks))})
	}
	return rows
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return string(runes[:width-1]) + "…"
}
