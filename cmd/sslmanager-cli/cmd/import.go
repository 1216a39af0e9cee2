package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [host...]",
	Short: "Imports certificates from the given hosts, or from every known host.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		hosts := args
		if len(hosts) == 0 {
			known, err := service.ListHosts(cmd.Context())
			if err != nil {
				log.Fatal(err)
			}
			for _, conn := range known {
				hosts = append(hosts, conn.Host)
			}
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Host", "Domains", "Imported", "Failed"})
		for _, host := range hosts {
			stats, err := service.ImportHost(cmd.Context(), host)
			if err != nil {
				log.Fatal(err)
			}
			t.AppendRow(table.Row{host, stats.Domains, stats.Imported, stats.Failed})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
