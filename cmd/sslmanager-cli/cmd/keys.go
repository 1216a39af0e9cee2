package cmd

import (
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(keysCmd)
}

var keysCmd = &cobra.Command{
	Use:   "keys <host>",
	Short: "Prints the API keys the remote host knows about.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		keys, err := service.ListKeys(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Key", "Bound IP", "Login", "Description"})
		for _, key := range keys {
			t.AppendRow(table.Row{key.Key, key.IPAddress, key.Login, key.Description})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
