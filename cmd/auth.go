package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"restbench/internal/format"
	"restbench/internal/workbench"
)

var (
	authEmail string
	authToken string
)

func init() {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the backend session",
		Long: `Manage the backend session.

The workbench does not sign you in itself: obtain an access token from the
backend's auth provider and store it here. History and collections require a
present session; requests can be sent without one.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Run:   runAuthLogin,
	}
	loginCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&authToken, "token", "", "Access token")
	_ = loginCmd.MarkFlagRequired("token")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Run:   runAuthStatus,
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Run:   runAuthLogout,
	}

	authCmd.AddCommand(loginCmd, statusCmd, logoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Login failed: %v", err))
		os.Exit(1)
	}

	if err := a.session.Save(authEmail, authToken); err != nil {
		format.PrintError(fmt.Sprintf("Login failed: %v", err))
		os.Exit(1)
	}

	// Hydrate stores so an invalid token is noticed right away.
	if err := workbench.HydrateStores(cmd.Context(), a.session.Current(), a.history, a.cols, a.cfg.HistoryLimit); err != nil {
		format.PrintError(fmt.Sprintf("Token stored, but loading data failed: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess("Signed in")
}

func runAuthStatus(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to read session: %v", err))
		os.Exit(1)
	}

	user := a.session.Current()
	if user == nil {
		fmt.Println("Signed out")
		return
	}
	if user.Email != "" {
		fmt.Printf("Signed in as %s\n", user.Email)
		return
	}
	fmt.Println("Signed in")
}

func runAuthLogout(cmd *cobra.Command, args []string) {
	a, err := newApp(cmd)
	if err != nil {
		format.PrintError(fmt.Sprintf("Logout failed: %v", err))
		os.Exit(1)
	}

	if err := a.session.Clear(); err != nil {
		format.PrintError(fmt.Sprintf("Logout failed: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess("Signed out")
}
