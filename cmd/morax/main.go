package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	serverrun "github.com/tisonkun/morax/internal/cmd/server"
	cfgpkg "github.com/tisonkun/morax/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "morax",
		Short: "Morax storage cluster CLI",
		Long:  "Morax is a distributed log storage core. This CLI runs nodes and talks to their HTTP API.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start a morax node (controller and/or bookie)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
				cfg.DataDir = v
			}
			if v, _ := cmd.Flags().GetString("http"); v != "" {
				cfg.HTTPAddr = v
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Log.Level = v
			}
			if v, _ := cmd.Flags().GetString("log-format"); v != "" {
				cfg.Log.Format = v
			}
			return serverrun.Run(context.Background(), cfg)
		},
	}
	serverStartCmd.Flags().String("config", "", "Path to a JSON config file")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (defaults to an OS-specific location)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address")
	serverStartCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", "", "Log format: text|json")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// bookie verbs
	bookieCmd := &cobra.Command{Use: "bookie", Short: "Bookie registry operations"}
	bookieRegisterCmd := &cobra.Command{
		Use:   "register",
		Short: "Register a bookie with the controller",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, _ := cmd.Flags().GetString("service")
			if service == "" {
				return fmt.Errorf("--service is required")
			}
			return postAndPrint("/v1/bookies/register", map[string]string{"service": service})
		},
	}
	bookieRegisterCmd.Flags().String("service", "", "Bookie address, host:port")
	bookieListCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered bookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return getAndPrint("/v1/bookies/list")
		},
	}
	bookieCmd.AddCommand(bookieRegisterCmd, bookieListCmd)
	rootCmd.AddCommand(bookieCmd)

	// ledger verbs
	ledgerCmd := &cobra.Command{Use: "ledger", Short: "Ledger operations"}
	ledgerCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Allocate a fresh ledger id",
		RunE: func(cmd *cobra.Command, args []string) error {
			return postAndPrint("/v1/ledgers/create", nil)
		},
	}
	ledgerAppendCmd := &cobra.Command{
		Use:   "append",
		Short: "Append an entry to a ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledgerID, _ := cmd.Flags().GetInt64("ledger")
			entryID, _ := cmd.Flags().GetInt64("entry")
			lac, _ := cmd.Flags().GetInt64("lac")
			payload, _ := cmd.Flags().GetString("payload")
			return postAndPrint("/v1/ledgers/append", map[string]any{
				"ledgerId":         ledgerID,
				"entryId":          entryID,
				"lastAddConfirmed": lac,
				"payload":          []byte(payload),
			})
		},
	}
	ledgerAppendCmd.Flags().Int64("ledger", 0, "Ledger id")
	ledgerAppendCmd.Flags().Int64("entry", 0, "Entry id")
	ledgerAppendCmd.Flags().Int64("lac", -1, "Last add confirmed")
	ledgerAppendCmd.Flags().String("payload", "", "Entry payload")
	ledgerReadCmd := &cobra.Command{
		Use:   "read",
		Short: "Read an entry back",
		RunE: func(cmd *cobra.Command, args []string) error {
			ledgerID, _ := cmd.Flags().GetInt64("ledger")
			entryID, _ := cmd.Flags().GetInt64("entry")
			return getAndPrint(fmt.Sprintf("/v1/ledgers/read?ledgerId=%d&entryId=%d", ledgerID, entryID))
		},
	}
	ledgerReadCmd.Flags().Int64("ledger", 0, "Ledger id")
	ledgerReadCmd.Flags().Int64("entry", 0, "Entry id")
	ledgerCmd.AddCommand(ledgerCreateCmd, ledgerAppendCmd, ledgerReadCmd)
	rootCmd.AddCommand(ledgerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("MORAX_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8411"
}

func postAndPrint(path string, body any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	resp, err := http.Post(apiURL()+path, "application/json", reader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func getAndPrint(path string) error {
	resp, err := http.Get(apiURL() + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Println(string(bytes.TrimSpace(b)))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("status: %s", resp.Status)
	}
	return nil
}
