package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/flypool/observe"
)

func newLoadCommand(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Register the cars listed in a YAML file",
		Long: `Reads a YAML document with optional seed models and a list of cars,
registers every car against the pool and prints the combined view of
each one, followed by the pooled flyweights, lookup stats and pool health.

File format:
  models:
    - {brand: BMW, model: M5, color: red}
  cars:
    - {plates: CL234IR, owner: James Doe, brand: BMW, model: M5, color: red}

Cars with malformed models (for example a component containing "_") are
reported and skipped unless --strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open fleet file: %w", err)
			}
			defer f.Close()

			fleet, err := LoadFleet(f)
			if err != nil {
				return err
			}

			pool, err := a.newPool()
			if err != nil {
				return err
			}
			if err := pool.Seed(ctx, fleet.Models...); err != nil {
				return err
			}

			for i, rec := range fleet.Cars {
				view, reused, err := registerCar(ctx, pool, rec)
				if err != nil {
					if strict {
						return fmt.Errorf("car %d (%s): %w", i, rec.Plates, err)
					}
					printError(cmd.ErrOrStderr(), "skipping car %d (%s): %v\n", i, rec.Plates, err)
					a.mw.Logger().Warn(ctx, "skipping car",
						observe.Field{Key: "index", Value: i},
						observe.Field{Key: "extrinsic", Value: rec.registration()},
						observe.Field{Key: "error", Value: err.Error()},
					)
					continue
				}
				printLookup(out, reused)
				fmt.Fprintln(out, view)
			}

			printListing(out, pool)
			printStats(out, pool)

			checker := a.checker(pool)
			printHealth(out, checker.Name(), checker.Check(ctx))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on the first car that cannot be registered")
	return cmd
}
