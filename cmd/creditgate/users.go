package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/scribefox/creditgate/adapters/idgen"
	"github.com/scribefox/creditgate/adapters/sqlite"
	"github.com/scribefox/creditgate/config"
	"github.com/scribefox/creditgate/domain/plan"
	"github.com/scribefox/creditgate/ports"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long: `Manage CreditGate users.

Users are assigned to a plan and carry a credit balance. A balance of
-1 means unlimited.

Examples:
  creditgate users list
  creditgate users create --email=dev@example.com --plan=free
  creditgate users set-credits dev@example.com 200
  creditgate users set-plan dev@example.com premium`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE:  runUsersList,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE:  runUsersCreate,
}

var usersGetCmd = &cobra.Command{
	Use:   "get <user-id-or-email>",
	Short: "Get user details",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersGet,
}

var usersSetPlanCmd = &cobra.Command{
	Use:   "set-plan <user-id-or-email> <plan-id>",
	Short: "Assign a user to a plan",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersSetPlan,
}

var usersSetCreditsCmd = &cobra.Command{
	Use:   "set-credits <user-id-or-email> <credits>",
	Short: "Overwrite a user's credit balance (-1 = unlimited)",
	Args:  cobra.ExactArgs(2),
	RunE:  runUsersSetCredits,
}

var usersSuspendCmd = &cobra.Command{
	Use:   "suspend <user-id-or-email>",
	Short: "Suspend a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersSuspend,
}

var (
	userEmail   string
	userName    string
	userPlan    string
	userCredits int64
)

func init() {
	rootCmd.AddCommand(usersCmd)

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersGetCmd)
	usersCmd.AddCommand(usersSetPlanCmd)
	usersCmd.AddCommand(usersSetCreditsCmd)
	usersCmd.AddCommand(usersSuspendCmd)

	usersCreateCmd.Flags().StringVar(&userEmail, "email", "", "user email (required)")
	usersCreateCmd.Flags().StringVar(&userName, "name", "", "user name")
	usersCreateCmd.Flags().StringVar(&userPlan, "plan", plan.FreePlanID, "plan ID")
	usersCreateCmd.Flags().Int64Var(&userCredits, "credits", 0, "starting credit balance")
	usersCreateCmd.MarkFlagRequired("email")
}

func runUsersList(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := sqlite.NewUserStore(db)
	users, err := userStore.List(context.Background(), 1000, 0)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if len(users) == 0 {
		fmt.Println("No users found.")
		fmt.Println()
		fmt.Println("Create a user with: creditgate users create --email=dev@example.com")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tPLAN\tCREDITS\tSTATUS")
	fmt.Fprintln(w, "--\t-----\t----\t-------\t------")

	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.PlanID, formatCredits(u.Credits), u.Status)
	}

	w.Flush()
	return nil
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := sqlite.NewUserStore(db)

	user := ports.User{
		ID:      idgen.UUID{}.New(),
		Email:   userEmail,
		Name:    userName,
		PlanID:  userPlan,
		Credits: userCredits,
		Status:  "active",
	}

	if err := userStore.Create(context.Background(), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("%s Created user: %s\n", checkMark, user.ID)
	fmt.Printf("   Email:   %s\n", user.Email)
	if user.Name != "" {
		fmt.Printf("   Name:    %s\n", user.Name)
	}
	fmt.Printf("   Plan:    %s\n", user.PlanID)
	fmt.Printf("   Credits: %s\n", formatCredits(user.Credits))

	return nil
}

func runUsersGet(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := sqlite.NewUserStore(db)
	user, err := getUserByIDOrEmail(userStore, args[0])
	if err != nil {
		return fmt.Errorf("user not found: %s", args[0])
	}

	fmt.Printf("ID:      %s\n", user.ID)
	fmt.Printf("Email:   %s\n", user.Email)
	if user.Name != "" {
		fmt.Printf("Name:    %s\n", user.Name)
	}
	fmt.Printf("Plan:    %s\n", user.PlanID)
	fmt.Printf("Credits: %s\n", formatCredits(user.Credits))
	fmt.Printf("Status:  %s\n", user.Status)
	fmt.Printf("Created: %s\n", user.CreatedAt.Format("2006-01-02 15:04:05"))
	if !user.UpdatedAt.IsZero() {
		fmt.Printf("Updated: %s\n", user.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func runUsersSetPlan(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := sqlite.NewUserStore(db)
	user, err := getUserByIDOrEmail(userStore, args[0])
	if err != nil {
		return fmt.Errorf("user not found: %s", args[0])
	}

	user.PlanID = args[1]
	if err := userStore.Update(context.Background(), user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	fmt.Printf("%s %s moved to plan %s\n", checkMark, user.Email, user.PlanID)
	return nil
}

func runUsersSetCredits(cmd *cobra.Command, args []string) error {
	credits, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid credit amount: %s", args[1])
	}
	if credits < plan.UnlimitedCredits {
		return fmt.Errorf("credits must be >= 0, or -1 for unlimited")
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := sqlite.NewUserStore(db)
	user, err := getUserByIDOrEmail(userStore, args[0])
	if err != nil {
		return fmt.Errorf("user not found: %s", args[0])
	}

	if err := userStore.SetCredits(context.Background(), user.ID, credits); err != nil {
		return fmt.Errorf("failed to set credits: %w", err)
	}

	fmt.Printf("%s %s balance set to %s\n", checkMark, user.Email, formatCredits(credits))
	return nil
}

func runUsersSuspend(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	userStore := sqlite.NewUserStore(db)
	user, err := getUserByIDOrEmail(userStore, args[0])
	if err != nil {
		return fmt.Errorf("user not found: %s", args[0])
	}

	if user.Status == "suspended" {
		fmt.Printf("User %s is already suspended\n", user.Email)
		return nil
	}

	if !confirm(fmt.Sprintf("Suspend user %s?", user.Email)) {
		fmt.Println("Aborted.")
		return nil
	}

	user.Status = "suspended"
	if err := userStore.Update(context.Background(), user); err != nil {
		return fmt.Errorf("failed to suspend user: %w", err)
	}

	fmt.Printf("%s Suspended user: %s (%s)\n", checkMark, user.Email, user.ID)
	return nil
}

func openDatabase() (*sqlite.DB, error) {
	// Load config to get database path
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// getUserByIDOrEmail retrieves a user by ID or email address
func getUserByIDOrEmail(userStore *sqlite.UserStore, identifier string) (ports.User, error) {
	ctx := context.Background()

	// If it contains @, treat as email
	if strings.Contains(identifier, "@") {
		return userStore.GetByEmail(ctx, identifier)
	}

	return userStore.Get(ctx, identifier)
}

func formatCredits(credits int64) string {
	if credits == plan.UnlimitedCredits {
		return "unlimited"
	}
	return strconv.FormatInt(credits, 10)
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
