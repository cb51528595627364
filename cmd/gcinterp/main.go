package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	cfg = defaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "gcinterp",
	Short: "Interpret G-code and dispatch its commands",
	Long: `gcinterp tokenizes G-code, resolves modal commands and reports
what was dispatched. Programs can be read from files, stdin, a serial
port, or a Serial Port JSON Server, or submitted over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cfgFile)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log unhandled commands and load errors.")
}

// interpreterLogger returns the logger handed to interpreters, nil unless
// --verbose is set.
func interpreterLogger() *log.Logger {
	if !verbose {
		return nil
	}
	return log.New(os.Stderr, "interpreter: ", 0)
}

func main() {
	log.SetFlags(log.Lshortfile)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
