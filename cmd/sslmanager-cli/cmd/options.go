package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

func init() {
	optionCmd.AddCommand(optionGetCmd)
	optionCmd.AddCommand(optionSetCmd)
	rootCmd.AddCommand(optionCmd)
}

var optionCmd = &cobra.Command{
	Use:   "option",
	Short: "Read and write persisted service settings.",
}

var optionGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Prints the value of a setting.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		value, err := service.GetOption(cmd.Context(), args[0])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(value)
	},
}

var optionSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Sets a setting.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		service, cleanup, err := openService()
		if err != nil {
			log.Fatal(err)
		}
		defer cleanup()

		err = service.SetOption(cmd.Context(), args[0], args[1])
		if err != nil {
			log.Fatal(err)
		}
	},
}
