package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yuyuan/litportal/internal/domain/literature"
	"github.com/yuyuan/litportal/internal/domain/query"
	literatureuc "github.com/yuyuan/litportal/internal/usecase/literature"
)

type listOptions struct {
	page      int
	size      int
	keyword   string
	tags      []string
	fileType  string
	startDate string
	endDate   string
	asJSON    bool
}

func newListCmd(root *rootOptions) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List literature, optionally filtered",
		Example: `  litportal list --keyword transformer --tag nlp --file-type pdf
  litportal list --page 2 --size 20 --from 2024-01-01 --to 2024-06-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.fileType != "" && !literature.FileType(opts.fileType).IsValid() {
				return fmt.Errorf("unsupported file type %q", opts.fileType)
			}

			cfg, logger, client, err := root.cliSetup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			store := literatureuc.New(client,
				literatureuc.WithLogger(logger),
				literatureuc.WithPageSize(cfg.Paging.DefaultPageSize),
			)
			store.UpdateQueryParams(opts.partial())
			if cmd.Flags().Changed("size") {
				store.SetPageSize(opts.size)
			}
			store.SetPage(opts.page)

			if err := store.FetchList(cmd.Context()); err != nil {
				return err
			}

			st := store.Snapshot()
			if opts.asJSON {
				return writeListJSON(cmd.OutOrStdout(), st)
			}
			return writeListTable(cmd.OutOrStdout(), st)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.size, "size", query.DefaultPageSize, "page size")
	f.StringVarP(&opts.keyword, "keyword", "k", "", "keyword to search for")
	f.StringSliceVarP(&opts.tags, "tag", "t", nil, "tag filter, repeatable")
	f.StringVar(&opts.fileType, "file-type", "", "file type: pdf, doc, docx, md, markdown")
	f.StringVar(&opts.startDate, "from", "", "created on or after (YYYY-MM-DD)")
	f.StringVar(&opts.endDate, "to", "", "created on or before (YYYY-MM-DD)")
	f.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (o *listOptions) partial() query.Partial {
	p := query.Partial{
		Keyword:   &o.keyword,
		FileType:  &o.fileType,
		StartDate: &o.startDate,
		EndDate:   &o.endDate,
	}
	if o.tags != nil {
		p.Tags = o.tags
	}
	return p
}

type listOutput struct {
	Records    []literature.Summary      `json:"records"`
	Total      int64                     `json:"total"`
	Page       int                       `json:"page"`
	Size       int                       `json:"size"`
	TotalPages int                       `json:"totalPages"`
	TagOptions []literature.FilterOption `json:"tagOptions"`
}

func writeListJSON(w io.Writer, st literatureuc.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listOutput{
		Records:    st.List,
		Total:      st.Total,
		Page:       st.Params.Page,
		Size:       st.Params.Size,
		TotalPages: st.Params.MaxPage(st.Total),
		TagOptions: st.TagOptions,
	})
}

func writeListTable(w io.Writer, st literatureuc.State) error {
	if len(st.List) == 0 {
		_, err := fmt.Fprintln(w, "No literature found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tSTATUS\tTAGS\tCREATED")
	for i := range st.List {
		rec := &st.List[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID,
			rec.OriginalName,
			rec.FileType,
			literature.FormatSize(rec.FileSize),
			rec.StatusLabel(),
			strings.Join(rec.Tags, ","),
			rec.CreateTime.String(),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\npage %d/%d, %d total\n", st.Params.Page, st.Params.MaxPage(st.Total), st.Total)
	return err
}
