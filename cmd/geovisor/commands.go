package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geovisor/internal/crs"
	"github.com/joeblew999/geovisor/internal/db"
	"github.com/joeblew999/geovisor/internal/service"
)

func addCommands(cli humacli.CLI) {
	root := cli.Root()

	// Coordinates are flags rather than positional args so negative values
	// are not mistaken for shorthand flags.
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Pick the reference system for a WGS 84 position",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			c := coordinateFlags(cmd)
			res, err := newConversion(opts).Resolve(c)
			exitOnError(err)
			printJSON(res)
		}),
	}
	addCoordinateFlags(resolveCmd)
	root.AddCommand(resolveCmd)

	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Project a WGS 84 position into the resolved or given system",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			system, _ := cmd.Flags().GetString("system")
			res, err := newConversion(opts).Project(coordinateFlags(cmd), system)
			exitOnError(err)
			printJSON(res)
		}),
	}
	addCoordinateFlags(projectCmd)
	projectCmd.Flags().StringP("system", "s", "", "Target system id (resolved when empty)")
	root.AddCommand(projectCmd)

	unprojectCmd := &cobra.Command{
		Use:   "unproject",
		Short: "Convert a projected position back to WGS 84",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			easting, _ := cmd.Flags().GetFloat64("easting")
			northing, _ := cmd.Flags().GetFloat64("northing")
			system, _ := cmd.Flags().GetString("system")
			res, err := newConversion(opts).Unproject(service.Projected{Easting: easting, Northing: northing, System: system})
			exitOnError(err)
			printJSON(res)
		}),
	}
	unprojectCmd.Flags().Float64("easting", 0, "Easting in metres")
	unprojectCmd.Flags().Float64("northing", 0, "Northing in metres")
	unprojectCmd.Flags().StringP("system", "s", "", "Source system id")
	unprojectCmd.MarkFlagRequired("easting")
	unprojectCmd.MarkFlagRequired("northing")
	unprojectCmd.MarkFlagRequired("system")
	root.AddCommand(unprojectCmd)

	dmsCmd := &cobra.Command{
		Use:   "dms",
		Short: "Format a WGS 84 position in degrees, minutes and seconds",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			text, err := newConversion(opts).FormatDMS(coordinateFlags(cmd))
			exitOnError(err)
			fmt.Println(text)
		}),
	}
	addCoordinateFlags(dmsCmd)
	root.AddCommand(dmsCmd)

	root.AddCommand(&cobra.Command{
		Use:   "parse-dms TEXT...",
		Short: "Parse degrees, minutes and seconds text",
		Args:  cobra.MinimumNArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			c, err := newConversion(opts).ParseDMS(strings.Join(args, " "))
			exitOnError(err)
			printJSON(c)
		}),
	})

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "List catalogued reference systems",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			region, _ := cmd.Flags().GetString("region")
			printJSON(newConversion(opts).Systems(region))
		}),
	}
	systemsCmd.Flags().StringP("region", "r", "", "Only systems valid in this region")
	root.AddCommand(systemsCmd)

	exportCmd := &cobra.Command{
		Use:   "export SOURCE",
		Short: "Project every vertex of a GeoJSON source into CSV or Parquet",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			name, _ := cmd.Flags().GetString("name")
			format, _ := cmd.Flags().GetString("format")
			system, _ := cmd.Flags().GetString("system")

			res, err := runExport(context.Background(), opts, service.ExportRequest{
				Source: args[0],
				Name:   name,
				Format: format,
				System: system,
			})
			exitOnError(err)
			printJSON(res)
		}),
	}
	exportCmd.Flags().StringP("name", "n", "", "Output name (defaults to the source name)")
	exportCmd.Flags().StringP("format", "f", service.FormatCSV, "Output format: csv or parquet")
	exportCmd.Flags().StringP("system", "s", "", "Force one system for every vertex")
	root.AddCommand(exportCmd)

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv := newServer(opts)
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			var err error
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	root.AddCommand(specCmd)
}

func addCoordinateFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64("lng", 0, "Longitude in decimal degrees")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lng")
}

func coordinateFlags(cmd *cobra.Command) service.Coordinate {
	lat, _ := cmd.Flags().GetFloat64("lat")
	lng, _ := cmd.Flags().GetFloat64("lng")
	return service.Coordinate{Lat: lat, Lng: lng}
}

// newConversion builds a conversion service without the HTTP server or DuckDB.
func newConversion(opts *Options) *service.ConversionService {
	conv := service.NewConversionService(crs.NewResolver(nil), opts.Catalog, nil, slog.Default())
	if opts.Catalog != "" {
		_, err := conv.ReloadCatalog()
		exitOnError(err)
	}
	return conv
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	exitOnError(err)
	fmt.Println(string(out))
}

// runExport writes one export through its own DuckDB connection, which is
// closed before returning.
func runExport(ctx context.Context, opts *Options, req service.ExportRequest) (service.ExportResult, error) {
	conv := newConversion(opts)
	conn, err := db.Open(db.Config{DataDir: opts.DataDir, DBName: "geovisor"})
	if err != nil {
		return service.ExportResult{}, err
	}
	defer conn.Close()

	exports := service.NewExportService(conn, opts.DataDir, service.NewSourceService(opts.DataDir), conv, nil, slog.Default())
	return exports.Export(ctx, req)
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error (%s): %v\n", kindLabel(err), err)
	os.Exit(1)
}

func kindLabel(err error) string {
	if k := crs.KindOf(err); k != crs.KindOther {
		return string(k)
	}
	return "error"
}
