// Package main runs the shortlink HTTP server.
//
//	@title			Shortlink API
//	@version		1.0
//	@description	Create short links, follow them and read their click statistics
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
package main

import (
	_ "github.com/sp3dr4/shortlink/docs"
	fxmodule "github.com/sp3dr4/shortlink/internal/fx"
)

func main() {
	fxmodule.NewHTTPServerApp().Run()
}
