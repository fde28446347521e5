package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/AnTengye/recscan/model"
	"github.com/AnTengye/recscan/service"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	input    string
	output   string
	sheet    string
	strategy string
	company  string
	merge    bool
	workers  int
}

func newScanCmd(opts *options) *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan every project row of a workbook and write the results workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if f.strategy == "" {
				f.strategy = cfg.Extraction.Strategy
			}
			if f.workers > 0 {
				cfg.Reports.Workers = f.workers
			}

			wb, err := openWorkbook(f.input)
			if err != nil {
				return err
			}
			sheet, raw, header, err := locateSheet(wb, f.sheet, cfg.Reports.HeaderMarker, cfg.Reports.HeaderScanRows)
			if err != nil {
				return err
			}
			rows, err := service.ProjectRows(raw, header, cfg.Reports.CompanyColumn, cfg.Reports.FileColumn, f.company)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg, f.strategy)
			if err != nil {
				return err
			}
			rec, err := a.recommenders.Get(f.strategy)
			if err != nil {
				return err
			}

			table := a.scanner.Run(cmd.Context(), rows, rec)

			var artifact []byte
			if f.merge {
				artifact, err = service.MergeResults(raw, header, sheet, table)
			} else {
				artifact, err = service.WriteResults(table)
			}
			if err != nil {
				return fmt.Errorf("export results: %w", err)
			}
			if err := os.WriteFile(f.output, artifact, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", f.output, err)
			}

			printSummary(cmd, table)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", len(table), f.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Project workbook (.xlsx)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "resultado_recomendacoes.xlsx", "Results workbook to write")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Sheet to read (default: first sheet)")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "Extraction strategy: keyword or model (default from config)")
	cmd.Flags().StringVar(&f.company, "company", "", "Only scan rows of this company")
	cmd.Flags().BoolVar(&f.merge, "merge", false, "Write the source sheet back with a recommendations column")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Rows processed in parallel (default from config)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func printSummary(cmd *cobra.Command, table model.ResultTable) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMPRESA\tARQUIVO\tSTATUS")
	for _, r := range table {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Company, r.FileName, r.Status.Label())
	}
	_ = w.Flush()
}

func newSheetsCmd(opts *options) *cobra.Command {
	var input, sheet string

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "List the sheets, header columns and companies of a workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			wb, err := openWorkbook(input)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "sheets:")
			for _, name := range wb.Sheets() {
				fmt.Fprintf(out, "  %s\n", name)
			}

			name, raw, header, err := locateSheet(wb, sheet, cfg.Reports.HeaderMarker, cfg.Reports.HeaderScanRows)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "sheet %s, header at row %d\n", name, header.Row+1)
			fmt.Fprintln(out, "columns:")
			for _, col := range header.Columns {
				if col != "" {
					fmt.Fprintf(out, "  %s\n", col)
				}
			}
			fmt.Fprintln(out, "companies:")
			for _, company := range service.Companies(raw, header, cfg.Reports.CompanyColumn) {
				fmt.Fprintf(out, "  %s\n", company)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Project workbook (.xlsx)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "Sheet to inspect (default: first sheet)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newReportsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the report PDFs available in the configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := service.NewReportSource(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			keys, err := source.Reports(cmd.Context())
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "analyze <key>",
		Short: "Extract the recommendations of a single report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strategy == "" {
				strategy = opts.cfg.Extraction.Strategy
			}
			a, err := newApp(cmd.Context(), opts.cfg, strategy)
			if err != nil {
				return err
			}
			rec, err := a.recommenders.Get(strategy)
			if err != nil {
				return err
			}

			extraction, err := a.scanner.AnalyzeReport(cmd.Context(), args[0], rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), extraction.Format())
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Extraction strategy: keyword or model (default from config)")
	return cmd
}

func openWorkbook(path string) (*service.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return service.OpenWorkbook(f)
}

func locateSheet(wb *service.Workbook, sheet, marker string, maxScan int) (string, [][]string, service.HeaderIndex, error) {
	name, rows, err := wb.Rows(sheet)
	if err != nil {
		return "", nil, service.HeaderIndex{}, err
	}
	header, ok := service.LocateHeader(rows, marker, maxScan)
	if !ok {
		return "", nil, service.HeaderIndex{}, fmt.Errorf("sheet %s: %w", name, service.ErrHeaderNotFound)
	}
	return name, rows, header, nil
}
