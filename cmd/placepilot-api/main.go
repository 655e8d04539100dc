package main

import (
	"context"
	"log"
	"net/http"

	"github.com/placepilot/placepilot/internal/adapters/foursquare"
	httpadapter "github.com/placepilot/placepilot/internal/adapters/http"
	"github.com/placepilot/placepilot/internal/adapters/llm"
	firestorestore "github.com/placepilot/placepilot/internal/adapters/storage/firestore"
	memstore "github.com/placepilot/placepilot/internal/adapters/storage/memory"
	sqlitestore "github.com/placepilot/placepilot/internal/adapters/storage/sqlite"
	"github.com/placepilot/placepilot/internal/app/agents"
	"github.com/placepilot/placepilot/internal/app/flow"
	"github.com/placepilot/placepilot/internal/app/router"
	"github.com/placepilot/placepilot/internal/config"
	"github.com/placepilot/placepilot/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// NLU: mock or Vertex by config (mock is the local-mode default).
	var (
		classifier domain.IntentClassifier
		parser     domain.SlotParser
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock classifier and slot parser")
		mock := llm.NewMock()
		classifier, parser = mock, mock
	} else {
		log.Println("[LLM] Using Vertex AI client")
		vertex, err := llm.NewVertexClient(ctx, cfg.GCPProjectID, cfg.GCPLocation, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Vertex AI client: %v", err)
		}
		classifier, parser = vertex, vertex
	}

	// Places: mock or Foursquare.
	var (
		searcher  domain.PlaceSearcher
		submitter domain.PlaceSubmitter
	)
	if cfg.UseMockSearch {
		log.Println("[PLACES] Using mock place search")
		mock := foursquare.NewMock()
		searcher, submitter = mock, mock
	} else {
		log.Println("[PLACES] Using Foursquare Places API")
		opts := []foursquare.Option{foursquare.WithBaseURL(cfg.FoursquareApiBase)}
		if cfg.FoursquareSubmitTo != "" {
			opts = append(opts, foursquare.WithSubmitURL(cfg.FoursquareSubmitTo))
		}
		client, err := foursquare.NewClient(cfg.FoursquareAPIKey, opts...)
		if err != nil {
			log.Fatalf("error initializing Foursquare client: %v", err)
		}
		searcher, submitter = client, client
	}

	// Storage: memory, sqlite or firestore.
	var store domain.SessionStore
	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.SessionIdleTimeout)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		defer fs.Close()
		store = fs
	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.DBPath)
		db, err := sqlitestore.New(cfg.DBPath, cfg.SessionIdleTimeout)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer db.Close()
		store = db
	default:
		log.Println("[STORE] Using in-memory storage")
		store = memstore.New(cfg.SessionIdleTimeout)
	}

	machine := flow.NewMachine(parser, submitter, cfg.CollaboratorTimeout)

	// Registration order is the tie-break order.
	registry := []agents.Agent{
		agents.NewSearchAgent(searcher, cfg.CollaboratorTimeout),
		agents.NewRecommendationAgent(searcher, cfg.CollaboratorTimeout),
		agents.NewDataManagementAgent(machine),
		agents.NewConciergeAgent(),
	}

	opts := []router.Option{
		router.WithHistoryLimit(cfg.HistoryLimit),
		router.WithClassifierTimeout(cfg.CollaboratorTimeout),
	}
	if cfg.TieBreak == "last" {
		opts = append(opts, router.WithTieBreak(router.TieBreakLastRegistered))
	}
	rt := router.New(store, classifier, registry, opts...)

	handler := httpadapter.NewServer(rt)

	addr := ":" + cfg.Port
	log.Println("PlacePilot API listening on port:", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
