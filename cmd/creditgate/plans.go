package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/scribefox/creditgate/adapters/clock"
	"github.com/scribefox/creditgate/adapters/idgen"
	"github.com/scribefox/creditgate/adapters/sqlite"
	"github.com/scribefox/creditgate/app"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/domain/pricing"
	"github.com/scribefox/creditgate/domain/service"
	"github.com/spf13/cobra"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect and seed the plan catalog",
	Long: `Inspect and seed the CreditGate plan catalog.

The catalog is stored as one versioned blob. When the blob is absent
or unreadable the server serves the in-code defaults without writing
them back; 'plans seed' persists those defaults explicitly.

Examples:
  creditgate plans list
  creditgate plans show premium
  creditgate plans seed
  creditgate plans costs`,
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the effective plan catalog",
	RunE:  runPlansList,
}

var plansShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show one plan with its per-service permissions",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlansShow,
}

var plansSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Persist the default catalog to the store",
	RunE:  runPlansSeed,
}

var plansCostsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show the authoritative per-service cost table",
	RunE:  runPlansCosts,
}

func init() {
	rootCmd.AddCommand(plansCmd)

	plansCmd.AddCommand(plansListCmd)
	plansCmd.AddCommand(plansShowCmd)
	plansCmd.AddCommand(plansSeedCmd)
	plansCmd.AddCommand(plansCostsCmd)
}

func openCatalog() (*app.CatalogService, *sqlite.DB, error) {
	db, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}

	catalog := app.NewCatalogService(app.CatalogDeps{
		Store:  sqlite.NewConfigStore(db),
		Audit:  sqlite.NewAuditStore(db),
		IDGen:  idgen.UUID{},
		Clock:  clock.Real{},
		Logger: zerolog.Nop(),
	})
	return catalog, db, nil
}

func runPlansList(cmd *cobra.Command, args []string) error {
	catalog, db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	plans, err := catalog.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREDITS\tPRICE\tACTIVE")
	fmt.Fprintln(w, "--\t----\t-------\t-----\t------")
	for _, p := range plans {
		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t%v\n", p.ID, p.Name, formatCredits(p.Credits), float64(p.PriceCents)/100, p.IsActive)
	}
	w.Flush()

	if v := catalog.Version(); v == 0 {
		fmt.Println()
		fmt.Println("Catalog has never been saved; showing in-code defaults.")
		fmt.Println("Persist them with: creditgate plans seed")
	}
	return nil
}

func runPlansShow(cmd *cobra.Command, args []string) error {
	catalog, db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	plans, err := catalog.Load(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	p, ok := plan.FindPlan(plans, args[0])
	if !ok {
		return fmt.Errorf("plan not found: %s", args[0])
	}

	fmt.Printf("ID:      %s\n", p.ID)
	fmt.Printf("Name:    %s\n", p.Name)
	fmt.Printf("Credits: %s\n", formatCredits(p.Credits))
	fmt.Printf("Price:   $%.2f / %s\n", float64(p.PriceCents)/100, p.Interval)
	fmt.Printf("Active:  %v\n", p.IsActive)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tENABLED\tCREDITS/USE")
	fmt.Fprintln(w, "-------\t-------\t-----------")
	for _, sp := range plan.MergeServices(p) {
		fmt.Fprintf(w, "%s\t%v\t%d\n", sp.Key, sp.Enabled, sp.CreditsPerUse)
	}
	w.Flush()
	return nil
}

func runPlansSeed(cmd *cobra.Command, args []string) error {
	catalog, db, err := openCatalog()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := catalog.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if v := catalog.Version(); v != 0 {
		if !confirm(fmt.Sprintf("Catalog already saved at version %d. Overwrite with defaults?", v)) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	saved, version, err := catalog.Save(ctx, plan.Defaults(), "cli", catalog.Version())
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	fmt.Printf("%s Seeded %d plans at version %d\n", checkMark, len(saved), version)
	return nil
}

func runPlansCosts(cmd *cobra.Command, args []string) error {
	costs := pricing.DefaultCostTable()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tCREDITS/USE")
	fmt.Fprintln(w, "-------\t-----------")
	for _, key := range service.All() {
		if cost, ok := costs[key]; ok {
			fmt.Fprintf(w, "%s\t%d\n", key, cost)
		} else {
			fmt.Fprintf(w, "%s\t%d (default)\n", key, plan.DefaultCreditsPerUse)
		}
	}
	w.Flush()
	return nil
}
