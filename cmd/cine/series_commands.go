package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cine/internal/api"
	"cine/internal/catalog"
	"cine/internal/config"
	"cine/internal/importer"
	"cine/internal/ipc"
	"cine/internal/logging"
)

// seriesBackend gives the series subcommands one view of the catalog:
// through the daemon when one is listening, directly against the database
// otherwise. Client is nil on the direct path.
type seriesBackend struct {
	client   *ipc.Client
	store    *catalog.Store
	importer *importer.Importer
}

func (c *commandContext) withSeriesBackend(fn func(backend *seriesBackend) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err == nil {
		defer client.Close()
		return fn(&seriesBackend{client: client})
	}
	if !daemonUnreachable(err) {
		return wrapDialError(err, socket)
	}

	cfg, cfgErr := c.ensureConfig()
	if cfgErr != nil {
		return cfgErr
	}
	store, openErr := catalog.Open(cfg)
	if openErr != nil {
		return fmt.Errorf("open series catalog: %w", openErr)
	}
	defer store.Close()
	return fn(&seriesBackend{
		store:    store,
		importer: importer.New(cfg, store, logging.NewNop()),
	})
}

func newSeriesCommand(ctx *commandContext) *cobra.Command {
	seriesCmd := &cobra.Command{
		Use:   "series",
		Short: "Inspect and manage the series catalog",
	}

	seriesCmd.AddCommand(newSeriesListCommand(ctx))
	seriesCmd.AddCommand(newSeriesDescribeCommand(ctx))
	seriesCmd.AddCommand(newSeriesImportCommand(ctx))
	seriesCmd.AddCommand(newSeriesRemoveCommand(ctx))
	seriesCmd.AddCommand(newSeriesReimportCommand(ctx))
	seriesCmd.AddCommand(newSeriesScanCommand(ctx))

	return seriesCmd
}

func newSeriesListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog series",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSeriesBackend(func(backend *seriesBackend) error {
				var series []ipc.Series
				if backend.client != nil {
					resp, err := backend.client.SeriesList(listStatuses)
					if err != nil {
						return err
					}
					series = resp.Series
				} else {
					var filters []catalog.Status
					for _, raw := range listStatuses {
						if parsed, ok := catalog.ParseStatus(raw); ok {
							filters = append(filters, parsed)
						}
					}
					records, err := backend.store.List(cmd.Context(), filters...)
					if err != nil {
						return err
					}
					series = api.FromSeriesList(records)
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, ipc.SeriesListResponse{Series: series})
				}
				rows := buildSeriesRows(series)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No series found")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Frames", "Modality", "Study Date", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by series status (repeatable)")
	return cmd
}

func newSeriesDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <seriesID>",
		Short: "Show full detail for one series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]

			return ctx.withSeriesBackend(func(backend *seriesBackend) error {
				var series *ipc.Series
				if backend.client != nil {
					resp, err := backend.client.SeriesDescribe(id)
					if err != nil {
						if strings.Contains(strings.ToLower(err.Error()), "not found") {
							fmt.Fprintf(cmd.OutOrStdout(), "Series %d not found\n", id)
							return nil
						}
						return err
					}
					series = &resp.Series
				} else {
					record, err := backend.store.GetByID(cmd.Context(), id)
					if err != nil {
						return err
					}
					if record == nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Series %d not found\n", id)
						return nil
					}
					dto := api.FromSeries(record)
					series = &dto
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, ipc.SeriesDescribeResponse{Series: *series})
				}
				printSeriesDetail(cmd.OutOrStdout(), *series)
				return nil
			})
		},
	}
}

func newSeriesImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>...",
		Short: "Import DICOM files or directories into the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := make([]string, 0, len(args))
			for _, arg := range args {
				expanded, err := config.ExpandPath(strings.TrimSpace(arg))
				if err != nil {
					return fmt.Errorf("resolve path %q: %w", arg, err)
				}
				absPath, err := filepath.Abs(expanded)
				if err != nil {
					return fmt.Errorf("resolve path %q: %w", arg, err)
				}
				paths = append(paths, absPath)
			}

			return ctx.withSeriesBackend(func(backend *seriesBackend) error {
				var resp ipc.SeriesImportResponse
				if backend.client != nil {
					remote, err := backend.client.SeriesImport(paths)
					if err != nil {
						return err
					}
					resp = *remote
				} else {
					result, err := api.ImportPaths(cmd.Context(), backend.importer, paths)
					if err != nil {
						return err
					}
					resp = ipc.SeriesImportResponse{ImportedCount: result.ImportedCount, Items: result.Items}
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printSeriesImportResult(cmd.OutOrStdout(), resp.Items)
				return nil
			})
		},
	}
}

func newSeriesRemoveCommand(ctx *commandContext) *cobra.Command {
	var keepFrames bool

	cmd := &cobra.Command{
		Use:   "remove <seriesID>...",
		Short: "Remove series from the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withSeriesBackend(func(backend *seriesBackend) error {
				var resp ipc.SeriesRemoveResponse
				if backend.client != nil {
					remote, err := backend.client.SeriesRemove(ids, keepFrames)
					if err != nil {
						return err
					}
					resp = *remote
				} else {
					result, err := api.RemoveSeriesByID(cmd.Context(), backend.store, nil, keepFrames, ids)
					if err != nil {
						return err
					}
					resp = ipc.SeriesRemoveResponse{RemovedCount: result.RemovedCount, Items: result.Items}
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printSeriesRemoveResult(cmd.OutOrStdout(), resp.Items)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&keepFrames, "keep-frames", false, "Leave extracted frame files on disk")
	return cmd
}

func newSeriesReimportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reimport <seriesID>",
		Short: "Re-run extraction for an existing series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]

			return ctx.withSeriesBackend(func(backend *seriesBackend) error {
				var series ipc.Series
				if backend.client != nil {
					resp, err := backend.client.SeriesReimport(id)
					if err != nil {
						return err
					}
					series = resp.Series
				} else {
					record, err := backend.importer.Reimport(cmd.Context(), id)
					if err != nil {
						return err
					}
					series = api.FromSeries(record)
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, ipc.SeriesReimportResponse{Series: series})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Series %d reimported: %s (%d frames, %s)\n",
					series.ID, series.Title, series.FrameCount, formatStatusLabel(series.Status))
				return nil
			})
		},
	}
}

func newSeriesScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Import every candidate file from the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSeriesBackend(func(backend *seriesBackend) error {
				var imported []ipc.Series
				if backend.client != nil {
					resp, err := backend.client.SeriesScan()
					if err != nil {
						return err
					}
					imported = resp.Imported
				} else {
					records, err := backend.importer.ScanInbox(cmd.Context())
					if err != nil {
						return err
					}
					imported = api.FromSeriesList(records)
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, ipc.SeriesScanResponse{Imported: imported})
				}
				out := cmd.OutOrStdout()
				if len(imported) == 0 {
					fmt.Fprintln(out, "No new files in the inbox")
					return nil
				}
				fmt.Fprintf(out, "Imported %d series from the inbox\n", len(imported))
				table := renderTable(
					[]string{"ID", "Title", "Status", "Frames", "Modality", "Study Date", "Created"},
					buildSeriesRows(imported),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(out, table)
				return nil
			})
		},
	}
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid series id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printSeriesDetail(out io.Writer, series ipc.Series) {
	write := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(out, "  %-18s %s\n", label+":", value)
	}

	fmt.Fprintf(out, "Series %d\n", series.ID)
	write("Title", series.Title)
	write("Status", formatStatusLabel(series.Status))
	write("Source", series.SourcePath)
	write("Frames", fmt.Sprintf("%d", series.FrameCount))
	write("Frame dir", series.FrameDir)
	write("Modality", series.Modality)
	write("Patient", series.PatientName)
	write("Patient ID", series.PatientID)
	write("Study date", series.StudyDate)
	write("Study", series.StudyDescription)
	write("Description", series.SeriesDescription)
	if series.ImageWidth > 0 && series.ImageHeight > 0 {
		write("Dimensions", fmt.Sprintf("%dx%d", series.ImageWidth, series.ImageHeight))
	}
	write("Error", series.ErrorMessage)
	write("Created", formatDisplayTime(series.CreatedAt))
	write("Updated", formatDisplayTime(series.UpdatedAt))
}

func printSeriesImportResult(out io.Writer, items []api.ImportPathResult) {
	for _, item := range items {
		switch item.Outcome {
		case api.ImportPathImported:
			if item.Series != nil {
				fmt.Fprintf(out, "Imported %s as series #%d\n", filepath.Base(item.Path), item.Series.ID)
			} else {
				fmt.Fprintf(out, "Imported %s\n", filepath.Base(item.Path))
			}
		case api.ImportPathFailed:
			fmt.Fprintf(out, "Import failed for %s: %s\n", filepath.Base(item.Path), item.Error)
		}
	}
}

func printSeriesRemoveResult(out io.Writer, items []api.RemoveSeriesResult) {
	for _, item := range items {
		switch item.Outcome {
		case api.RemoveSeriesRemoved:
			fmt.Fprintf(out, "Series %d removed\n", item.ID)
		case api.RemoveSeriesNotFound:
			fmt.Fprintf(out, "Series %d not found\n", item.ID)
		case api.RemoveSeriesInUse:
			fmt.Fprintf(out, "Series %d has open sessions (close them first)\n", item.ID)
		}
	}
}
