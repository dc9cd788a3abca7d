package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// demoRecords are the cars added to the police database by the demo: the
// first reuses a seeded model, the second needs a new one.
var demoRecords = []CarRecord{
	{Plates: "CL234IR", Owner: "James Doe", Brand: "BMW", Model: "M5", Color: "red"},
	{Plates: "CL234IR", Owner: "James Doe", Brand: "BMW", Model: "X1", Color: "red"},
}

func newDemoCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the police car database walkthrough",
		Long: `Seeds the pool with five car models, adds two cars to the police
database and lists the pooled flyweights before and after.

The first car (BMW M5 red) reuses a seeded flyweight; the second
(BMW X1 red) creates a new one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			pool, err := a.newPool()
			if err != nil {
				return err
			}
			if err := pool.Seed(ctx, DefaultModels...); err != nil {
				return err
			}
			printListing(out, pool)

			for _, rec := range demoRecords {
				fmt.Fprintln(out, "\nClient: Adding a car to database.")
				view, reused, err := registerCar(ctx, pool, rec)
				if err != nil {
					return err
				}
				printLookup(out, reused)
				fmt.Fprintln(out, view)
			}

			printListing(out, pool)
			return nil
		},
	}
}
