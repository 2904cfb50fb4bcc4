package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dton04/hoterier-cli/internal/devserver"
	"github.com/Dton04/hoterier-cli/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	port := flag.Int("port", 5000, "port to listen on")
	flag.Parse()

	server := devserver.New()
	server.StartSweeper(30 * time.Second)
	defer server.Stop()

	fmt.Printf("hoterier dev server listening on :%d\n", *port)
	fmt.Printf("guest token: %s\n", server.Tokens.Guest)
	fmt.Printf("staff token: %s\n", server.Tokens.Staff)

	if err := server.Router().Run(fmt.Sprintf(":%d", *port)); err != nil {
		logger.Log.WithError(err).Fatal("dev server stopped")
	}
}
