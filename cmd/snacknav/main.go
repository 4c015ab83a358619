package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/susu3304/snacknav/internal/catalog"
	"github.com/susu3304/snacknav/internal/geocode"
	"github.com/susu3304/snacknav/internal/geoscore"
	"github.com/susu3304/snacknav/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the state shared by every subcommand.
type cli struct {
	logLevel string
	logger   *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "snacknav",
		Short:        "SnackNav - walk to nearby snacks and earn points",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := c.logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			logger, err := logging.New(strings.ToLower(level))
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	root.AddCommand(c.serveCmd(), c.pointsCmd(), c.searchCmd())
	return root
}

func (c *cli) pointsCmd() *cobra.Command {
	var maxKm float64
	cmd := &cobra.Command{
		Use:   "points <lat1> <lon1> <lat2> <lon2>",
		Short: "Show the walking distance between two points and the reward it earns",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			vals := make([]float64, len(args))
			for i, a := range args {
				v, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("argument %d: invalid number %q", i+1, a)
				}
				vals[i] = v
			}
			from := geoscore.Coord{Lat: vals[0], Lng: vals[1]}
			to := geoscore.Coord{Lat: vals[2], Lng: vals[3]}

			d := geoscore.DistanceKm(from, to)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "distance: %s (%.4f km)\n", geoscore.FormatDistance(d), d)
			fmt.Fprintf(out, "points:   %d\n", geoscore.Points(d, maxKm))
			return nil
		},
	}
	cmd.Flags().Float64Var(&maxKm, "max-km", geoscore.DefaultMaxKm, "distance cap for the points formula")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		endpoint string
		timeout  time.Duration
		limit    int
		offline  bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Look a place up on the geocoder, falling back to the built-in city list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var remote geocode.Lookup
			if !offline {
				remote = geocode.NewNominatimClient(endpoint, limit, timeout)
			}
			searcher := geocode.NewSoftSearcher(remote,
				geocode.NewFallback(catalog.Default().CityNames()),
				geocode.WithLimit(limit),
				geocode.WithLogger(c.logger))

			results := searcher.Search(cmd.Context(), strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%s\t%.5f,%.5f\t%s\t%.2f\n", r.DisplayName, r.Lat, r.Lon, r.Type, r.Importance)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", geocode.DefaultEndpoint, "Nominatim search endpoint")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().IntVar(&limit, "limit", geocode.DefaultLimit, "maximum number of results")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the remote geocoder")
	return cmd
}
