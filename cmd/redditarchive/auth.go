package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"redditarchive/pkg/auth"
	"redditarchive/pkg/config"
	"redditarchive/pkg/logger"
	"redditarchive/pkg/reddit"
	"redditarchive/pkg/ui"
)

var skipVerify bool

// authCmd groups the credential commands
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Reddit credentials",
	Long: `Manage stored Reddit credentials.

The archiver logs in as a Reddit "script" application. Create one at
https://www.reddit.com/prefs/apps and note its client ID and secret.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file in the user config directory
  - Environment variables (REDDITARCHIVE_*), read only`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Reddit credentials",
	Long: `Store the credentials of a Reddit script application and the account it
acts for. Secrets are read without echo. Unless --skip-verify is given the
credentials are checked against Reddit before they are stored.`,
	Example: `  # Interactive login
  redditarchive auth login

  # Login with username
  redditarchive auth login spez`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"list"},
	Short:   "Show stored accounts and which one is used",
	Run:     runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store credentials without logging in to Reddit")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	} else {
		username = prompt(reader, "Reddit username: ")
	}
	username = reddit.SanitizeUsername(username)
	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		answer := prompt(reader, fmt.Sprintf("Account '%s' already exists. Update credentials? (y/N): ", username))
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return
		}
	}

	account := &auth.Account{
		Username:     username,
		ClientID:     prompt(reader, "Client ID: "),
		LastModified: time.Now(),
	}

	fmt.Print("Client secret: ")
	if account.ClientSecret, err = readPassword(reader); err != nil {
		ui.PrintError("Failed to read client secret", err.Error())
		os.Exit(1)
	}
	fmt.Print("Password: ")
	if account.Password, err = readPassword(reader); err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	account.UserAgent = prompt(reader, "User agent (press Enter for default): ")

	if err := account.Validate(); err != nil {
		ui.PrintError("Invalid credentials", err.Error())
		os.Exit(1)
	}

	if !skipVerify {
		name, err := verifyAccount(account)
		if err != nil {
			ui.PrintError("Reddit rejected the credentials", err.Error())
			fmt.Println("\nUse --skip-verify to store them anyway.")
			os.Exit(1)
		}
		ui.PrintInfo("Logged in as", name)
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account saved: " + username)

	fmt.Println("\nArchive your saved posts with:")
	fmt.Println("  $ redditarchive saved <location>")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintError("No stored accounts found")
			return
		}

		reader := bufio.NewReader(os.Stdin)
		if len(accounts) == 1 {
			username = accounts[0].Username
			answer := prompt(reader, fmt.Sprintf("Remove account '%s'? (y/N): ", username))
			if !strings.HasPrefix(strings.ToLower(answer), "y") {
				return
			}
		} else {
			fmt.Println("Select account to remove:")
			for i, account := range accounts {
				fmt.Printf("  %d. %s\n", i+1, account.Username)
			}
			fmt.Printf("  0. Cancel\n\n")

			var choice int
			fmt.Sscanf(prompt(reader, "Choice: "), "%d", &choice)
			if choice == 0 {
				return
			}
			if choice < 0 || choice > len(accounts) {
				ui.PrintError("Invalid choice")
				os.Exit(1)
			}
			username = accounts[choice-1].Username
		}
	}

	if err := manager.Delete(username); err != nil {
		ui.PrintError("Failed to remove account", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Account removed: " + username)
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if current, err := manager.RetrieveDefault(); err == nil {
		ui.PrintInfo("Active account", current.Username)
	} else {
		ui.PrintWarning("No active account")
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'redditarchive auth login' to add one")
		return
	}

	fmt.Println()
	ui.PrintHighlight("Stored Accounts")

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Username", "Client ID", "Client secret", "Password", "User agent", "Last modified"})
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		t.AppendRow(table.Row{
			i + 1,
			sanitized.Username,
			sanitized.ClientID,
			sanitized.ClientSecret,
			sanitized.Password,
			sanitized.UserAgent,
			sanitized.LastModified.Format("2006-01-02 15:04:05"),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// verifyAccount logs in with the account and returns the name Reddit
// reports for it
func verifyAccount(account *auth.Account) (string, error) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	cfg.Reddit.Username = account.Username
	cfg.Reddit.Password = account.Password
	cfg.Reddit.ClientID = account.ClientID
	cfg.Reddit.ClientSecret = account.ClientSecret
	if err := account.ApplyTo(&cfg.Reddit); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Download.Timeout)
	defer cancel()

	client := reddit.NewClient(reddit.OptionsFromConfig(cfg), nil, logger.NewNopLogger())
	return client.Identity(ctx)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readPassword reads a secret from stdin without echoing
func readPassword(reader *bufio.Reader) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(secret), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
