package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuyuan/litportal/internal/domain/literature"
	literatureuc "github.com/yuyuan/litportal/internal/usecase/literature"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one literature record with its reading guide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid literature id %q", args[0])
			}

			_, logger, client, err := root.cliSetup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store := literatureuc.New(client, literatureuc.WithLogger(logger))
			if err := store.FetchDetail(cmd.Context(), id); err != nil {
				return err
			}

			d := store.Snapshot().Detail
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return writeDetail(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeDetail(w io.Writer, d *literature.Detail) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", d.OriginalName, d.ID)
	fmt.Fprintf(&b, "Type:    %s\n", d.FileType)
	fmt.Fprintf(&b, "Size:    %s\n", literature.FormatSize(d.FileSize))
	fmt.Fprintf(&b, "Status:  %s\n", d.StatusLabel())
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "Tags:    %s\n", strings.Join(d.Tags, ", "))
	}
	fmt.Fprintf(&b, "Created: %s\n", d.CreateTime)
	fmt.Fprintf(&b, "Updated: %s\n", d.UpdateTime)
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}

	switch guide := strings.TrimSpace(d.ReadingGuide()); {
	case d.Status == literature.StatusProcessing:
		b.WriteString("\nThe reading guide is still being generated.\n")
	case guide != "":
		fmt.Fprintf(&b, "\n--- Reading guide ---\n\n%s\n", guide)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
