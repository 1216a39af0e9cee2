package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(certificatesCmd)
}

func present(value string) string {
	if value == "" {
		return ""
	}
	return "yes"
}

var certificatesCmd = &cobra.Command{
	Use:     "certificates",
	Aliases: []string{"certs"},
	Short:   "Prints every imported certificate and where it was seen.",
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		certs, err := service.ListCertificates(cmd.Context())
		if err != nil {
			log.Fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Common name", "CSR", "Cert", "CA", "Seen at"})
		for _, cert := range certs {
			instances, err := service.ListInstances(cmd.Context(), cert.ID)
			if err != nil {
				log.Fatal(err)
			}
			seenAt := ""
			for i, instance := range instances {
				if i > 0 {
					seenAt += ", "
				}
				seenAt += fmt.Sprintf("%s/%s", instance.Host, instance.DomainName)
			}
			t.AppendRow(table.Row{
				cert.ID,
				cert.CommonName,
				present(cert.Csr),
				present(cert.Cert),
				present(cert.Ca),
				seenAt,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
