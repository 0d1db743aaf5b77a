package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sasquatch-backpack/src/contracts"
	"sasquatch-backpack/src/display"
	"sasquatch-backpack/src/service"
	"sasquatch-backpack/src/usgs"
)

type earthquakeFlags struct {
	duration      []int
	radius        int
	coords        []float64
	magnitude     []int
	publish       bool
	publishMethod string
	force         bool
	redisURL      string
}

func newEarthquakeCmd() *cobra.Command {
	flags := &earthquakeFlags{}

	cmd := &cobra.Command{
		Use:   "usgs-earthquake-data",
		Short: "Search USGS for earthquakes and optionally publish them",
		Long: `Search the USGS earthquake catalog around a coordinate and print the results.

With --publish, events not already in the membership cache are sent to
the usgs_earthquake_data topic.`,
		Example: `  backpack usgs-earthquake-data -d 10,0
  backpack usgs-earthquake-data -d 0,12 -r 1000 -c -33.4,-70.6 -m 4,10 --publish --publish-method REST_API`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return usageError(err)
			}
			return runEarthquake(cmd, req)
		},
	}

	f := cmd.Flags()
	f.IntSliceVarP(&flags.duration, "duration", "d", nil, "How far back from the present should be searched (days,hours)")
	f.IntVarP(&flags.radius, "radius", "r", usgs.DefaultRadius, "Radius of search from central coordinates in km")
	f.Float64SliceVarP(&flags.coords, "coords", "c", []float64{usgs.DefaultLatitude, usgs.DefaultLongitude},
		"Latitude and longitude of the central coordinates (latitude,longitude). Defaults to Cerro Pachón")
	f.IntSliceVarP(&flags.magnitude, "magnitude-bounds", "m", []int{usgs.DefaultMinMagnitude, usgs.DefaultMaxMagnitude},
		"Lower and upper magnitude bounds (lower,upper)")
	f.BoolVar(&flags.publish, "publish", false, "Publish events not already sent")
	f.StringVar(&flags.publishMethod, "publish-method", string(contracts.PublishDirect), "DIRECT_CONNECTION or REST_API")
	f.BoolVar(&flags.force, "force", false, "Create the topic even if it already exists")
	f.StringVar(&flags.redisURL, "redis-url", "", "Membership cache address (default $BACKPACK_REDIS_URL)")
	cmd.MarkFlagRequired("duration")

	return cmd
}

// request validates the flags and builds a service request.
func (f *earthquakeFlags) request() (service.Request, error) {
	if len(f.duration) != 2 {
		return service.Request{}, errors.New("--duration takes two values: days,hours")
	}
	if len(f.coords) != 2 {
		return service.Request{}, errors.New("--coords takes two values: latitude,longitude")
	}
	if len(f.magnitude) != 2 {
		return service.Request{}, errors.New("--magnitude-bounds takes two values: lower,upper")
	}

	method := contracts.ParsePublishMethod(f.publishMethod)
	switch method {
	case contracts.PublishDirect, contracts.PublishREST:
	default:
		if f.publish {
			return service.Request{}, fmt.Errorf("--publish-method must be DIRECT_CONNECTION or REST_API, got %q", f.publishMethod)
		}
	}

	req := service.Request{
		Days:      f.duration[0],
		Hours:     f.duration[1],
		Radius:    f.radius,
		Latitude:  f.coords[0],
		Longitude: f.coords[1],
		Lower:     f.magnitude[0],
		Upper:     f.magnitude[1],
		Publish:   f.publish,
		Method:    string(method),
		Force:     f.force,
		CacheURL:  f.redisURL,
	}
	if err := req.Validate(); err != nil {
		return service.Request{}, err
	}
	return req, nil
}

func runEarthquake(cmd *cobra.Command, req service.Request) error {
	out := cmd.OutOrStdout()
	printer := display.NewPrinter(out)

	mode := "disabled"
	if req.Publish {
		mode = "enabled"
	}
	fmt.Fprintf(out, "Querying USGS with publish mode %s...\n", mode)

	svc := service.New(appConfig, nil, service.WithLogger(log))
	result, err := svc.Run(cmd.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return usageError(err)
		}
		return err
	}

	printer.SearchResults(result.Earthquakes)
	if len(result.Earthquakes) == 0 {
		return nil
	}

	if !req.Publish {
		fmt.Fprintln(out, "Publish mode is disabled: No data will be sent to Kafka.")
		return nil
	}

	fmt.Fprintf(out, "Publish mode enabled: Sending data via %s...\n", req.PublishMethod())
	fmt.Fprintf(out, "Querying cache at %s\n", redactAddress(result.CacheAddress))
	printer.Outcome(*result.Outcome)

	if step, failed := result.Outcome.FailedStep(); failed {
		return fmt.Errorf("publish failed at %s", step.Name)
	}
	return nil
}
