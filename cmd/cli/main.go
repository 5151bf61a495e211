package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"pulsenet-client/internal/app"
	"pulsenet-client/internal/client"
	"pulsenet-client/internal/config"
	"pulsenet-client/internal/mapview"
	"pulsenet-client/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "pulsenet",
	Short: "Blood donor matching client",
	Long:  `Search the matching service for donors, request routes to them and sample the configured location.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configDir)
		if err != nil {
			return fmt.Errorf("cannot load config: %w", err)
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		log.Logger = app.NewLogger(cfg.Log, nil)
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Search for matching donors",
	Long:  `Submit a match request, print the status, alert and ranked donors, and narrate the result.`,
	RunE:  runMatch,
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Request a route between two points",
	RunE:  runRoute,
}

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Sample the configured location",
	RunE:  runLocate,
}

var (
	cfg config.Config

	bloodGroup string
	address    string
	lat        string
	lon        string
	units      int
	urgency    string
	topN       int

	fromLat, fromLon float64
	toLat, toLon     float64
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "./configs", "Config directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	defaults := models.DefaultMatchForm()
	matchCmd.Flags().StringVarP(&bloodGroup, "blood-group", "b", defaults.BloodGroup, "Required blood group")
	matchCmd.Flags().StringVar(&address, "address", "", "Free-text address")
	matchCmd.Flags().StringVar(&lat, "lat", "", "Requester latitude")
	matchCmd.Flags().StringVar(&lon, "lon", "", "Requester longitude")
	matchCmd.Flags().IntVarP(&units, "units", "u", defaults.UnitsNeeded, "Units needed")
	matchCmd.Flags().StringVar(&urgency, "urgency", defaults.UrgencyLevel, "Urgency: low, medium, high, critical")
	matchCmd.Flags().IntVarP(&topN, "top", "n", defaults.TopN, "Number of donors to return")

	routeCmd.Flags().Float64Var(&fromLat, "from-lat", 0, "Origin latitude")
	routeCmd.Flags().Float64Var(&fromLon, "from-lon", 0, "Origin longitude")
	routeCmd.Flags().Float64Var(&toLat, "to-lat", 0, "Destination latitude")
	routeCmd.Flags().Float64Var(&toLon, "to-lon", 0, "Destination longitude")
	for _, name := range []string{"from-lat", "from-lon", "to-lat", "to-lon"} {
		_ = routeCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(matchCmd, routeCmd, locateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMatch(cmd *cobra.Command, args []string) error {
	a := app.New(cfg, log.Logger)
	defer a.Close()

	form := models.MatchForm{
		BloodGroup:   bloodGroup,
		Address:      address,
		Lat:          lat,
		Lon:          lon,
		UnitsNeeded:  units,
		UrgencyLevel: urgency,
		TopN:         topN,
	}
	state := a.Controller.SubmitQuery(cmd.Context(), form)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, state.Status)
	if state.Alert != nil {
		fmt.Fprintf(out, "%s: %s\n", state.Alert.Title(), state.Alert.Message)
	}
	if len(state.Candidates) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DONOR ID\tNAME\tBLOOD\tPHONE\tDISTANCE\tSCORE")
	for _, c := range state.Candidates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.DonorID, c.Name, c.BloodGroup, c.Phone,
			mapview.FormatDistance(c.DistanceMeters), mapview.FormatScore(c.Score))
	}
	return w.Flush()
}

func runRoute(cmd *cobra.Command, args []string) error {
	a := app.New(cfg, log.Logger)
	defer a.Close()

	res, err := a.Routes.FetchRoute(cmd.Context(), models.RouteQuery{
		Origin:      models.Point{Lat: fromLat, Lon: fromLon},
		Destination: models.Point{Lat: toLat, Lon: toLon},
	})
	if err != nil {
		if detail, ok := client.Detail(err); ok {
			return fmt.Errorf("route failed: %s", detail)
		}
		return fmt.Errorf("route failed: %w", err)
	}

	geometry := mapview.NormalizeAxisOrder(res.Geometry)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Points:   %d\n", len(geometry))
	fmt.Fprintf(out, "Distance: %s\n", mapview.FormatDistance(res.DistanceMeters))
	fmt.Fprintf(out, "Duration: %s\n", mapview.FormatDuration(res.DurationSeconds))
	if len(geometry) > 0 {
		fmt.Fprintf(out, "Start:    %.6f, %.6f\n", geometry[0][0], geometry[0][1])
		last := geometry[len(geometry)-1]
		fmt.Fprintf(out, "End:      %.6f, %.6f\n", last[0], last[1])
	}
	return nil
}

func runLocate(cmd *cobra.Command, args []string) error {
	a := app.New(cfg, log.Logger)
	defer a.Close()

	state := a.Controller.UseMyLocation(cmd.Context())

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, state.Status)
	if state.Origin != nil {
		fmt.Fprintf(out, "Position: %s, %s\n", state.Form.Lat, state.Form.Lon)
	}
	return nil
}
