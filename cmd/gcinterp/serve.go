package main

import (
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		fl := cmd.Flags()
		if fl.Changed("addr") {
			cfg.Server.Addr, _ = fl.GetString("addr")
		}
		if fl.Changed("dir") {
			cfg.Server.DataDir, _ = fl.GetString("dir")
		}

		a := newAPI(cfg.Server.DataDir, interpreterLogger())
		defer a.Close()

		log.Printf("listening on %s (data: %s)", cfg.Server.Addr, cfg.Server.DataDir)
		return http.ListenAndServe(cfg.Server.Addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
			a.ServeHTTP(w, req)
		}))
	},
}

func init() {
	fl := serveCmd.Flags()
	fl.String("addr", ":9091", "Address to bind the server to.")
	fl.String("dir", "./data", "Data directory to use.")
	rootCmd.AddCommand(serveCmd)
}
