package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"sslmanager-backend/services/plesk"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	hostsAddCmd.Flags().StringVar(&addName, "name", "", "friendly name for the host")
	hostsAddCmd.Flags().StringVar(&addLogin, "login", "admin", "panel login")
	hostsAddCmd.Flags().StringVar(&addPassword, "password", "", "panel password, exchanged for an API key and never stored")
	hostsAddCmd.Flags().BoolVar(&addInsecure, "insecure", false, "scrape over plain http instead of https")
	hostsAddCmd.MarkFlagRequired("password")

	hostsCmd.AddCommand(hostsListCmd)
	hostsCmd.AddCommand(hostsAddCmd)
	hostsCmd.AddCommand(hostsRemoveCmd)
	hostsCmd.AddCommand(hostsTestCmd)
	rootCmd.AddCommand(hostsCmd)
}

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Manage the remote hosts certificates are imported from.",
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Prints every known host.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		hosts, err := service.ListHosts(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Host", "Name", "Login", "Scheme", "Session valid until"})
		for _, host := range hosts {
			scheme := "https"
			if !host.UseHttps {
				scheme = "http"
			}
			validUntil := ""
			if host.SessionCookie != "" {
				validUntil = time.Unix(host.SessionExpiresAt, 0).Format(time.ANSIC)
			}
			t.AppendRow(table.Row{host.Host, host.FriendlyName, host.Login, scheme, validUntil})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var (
	addName     string
	addLogin    string
	addPassword string
	addInsecure bool
)

var hostsAddCmd = &cobra.Command{
	Use:   "add <host>",
	Short: "Registers a remote host and runs a first import.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		host := args[0]
		name := addName
		if name == "" {
			name = host
		}
		err = service.AddHost(cmd.Context(), plesk.AddHostRequest{
			Host:         host,
			FriendlyName: name,
			Login:        addLogin,
			Password:     addPassword,
			UseHttps:     !addInsecure,
		})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("added %s\n", host)
	},
}

var hostsRemoveCmd = &cobra.Command{
	Use:   "remove <host>",
	Short: "Removes a host and revokes its API key.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		err = service.RemoveHost(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("removed %s\n", args[0])
	},
}

var hostsTestCmd = &cobra.Command{
	Use:   "test <host>",
	Short: "Round-trips the stored API key against the host.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		err = service.TestConnection(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s is reachable and the key is accepted\n", args[0])
	},
}
