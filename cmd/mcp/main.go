package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	mcpadapter "github.com/stephensunny10/ZUVP-AI-Module/internal/adapters/mcp"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/config"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/usecase"
	"github.com/stephensunny10/ZUVP-AI-Module/internal/infrastructure/repository/postgres"
)

// main starts the draft review MCP server on stdio. Stdout carries the
// protocol, so diagnostics stay on the standard logger.
func main() {
	_ = godotenv.Load()
	log.SetPrefix("[MCP] ")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	drafts := postgres.NewDraftRepository(db)
	if err := drafts.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("ensure drafts schema: %v", err)
	}

	server, err := mcpadapter.New(usecase.NewReviewDraftUseCase(drafts))
	if err != nil {
		log.Fatalf("configure MCP server: %v", err)
	}
	if err := server.Serve(); err != nil {
		log.Fatalf("serve MCP: %v", err)
	}
}
