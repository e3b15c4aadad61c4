package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"secassist/internal/analysis"
	"secassist/internal/chunker"
	"secassist/internal/config"
	"secassist/internal/contextstore"
	"secassist/internal/conversation"
	"secassist/internal/embedding"
	"secassist/internal/gateway"
	"secassist/internal/history"
	"secassist/internal/parser"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	filePath := flag.String("file", "", "Path to a document to attach to the session")
	question := flag.String("question", "", "Question to ask; omit for an interactive session")
	personaName := flag.String("persona", "general assistant", "Persona: general assistant, academic or witty")
	model := flag.String("model", "", "Model name to dispatch to")
	clearHistory := flag.Bool("clear", false, "Clear conversation history and stored context, then exit")
	indexAnalyses := flag.Bool("index-analyses", false, "Index stored analysis results into the history index, then exit")
	searchHistory := flag.String("search-history", "", "Search past analysis results, then exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()

	embedder, err := newEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	if *indexAnalyses || *searchHistory != "" {
		runHistory(ctx, cfg, embedder, *indexAnalyses, *searchHistory)
		return
	}

	store := contextstore.New(cfg.Store.Path)
	gw := newGateway(cfg)
	splitter := chunker.NewParagraphSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	analyses := newAnalysisSource(ctx, cfg)
	manager := conversation.NewManager(splitter, embedder, gw, store, analyses, cfg.RAG.ContextBudget)
	session := conversation.NewSession()

	if *clearHistory {
		if err := manager.Clear(ctx, session); err != nil {
			log.Fatal().Err(err).Msg("Error clearing history")
		}
		log.Info().Msg("History cleared")
		return
	}

	if *filePath != "" {
		text, err := parser.ExtractText(*filePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Error extracting document text")
		}
		session.AttachDocument(text)
		log.Info().Str("file", *filePath).Int("chars", len(text)).Msg("Document attached")
	}

	if *model == "" {
		log.Fatal().Msg("Please provide a model name using the -model flag")
	}

	if *question != "" {
		ask(ctx, manager, session, *question, *personaName, *model)
		return
	}

	runInteractive(ctx, manager, session, *personaName, *model)
}

func ask(ctx context.Context, manager *conversation.Manager, session *conversation.Session, question, persona, model string) {
	turn, err := manager.Ask(ctx, session, conversation.Request{
		Question:      question,
		Persona:       persona,
		Model:         model,
		AllowDegraded: true,
	})
	if err != nil {
		log.Error().Err(err).Msg("Turn failed, nothing was recorded")
		return
	}
	fmt.Printf("You: %s\n", turn.Question)
	fmt.Printf("Bot: %s\n\n", turn.Answer)
}

func runInteractive(ctx context.Context, manager *conversation.Manager, session *conversation.Session, persona, model string) {
	fmt.Println("Type a question, /clear to reset history, /save <path> to save the transcript, /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/clear":
			if err := manager.Clear(ctx, session); err != nil {
				log.Error().Err(err).Msg("Error clearing history")
				continue
			}
			fmt.Println("History cleared.")
		case strings.HasPrefix(line, "/save"):
			path := strings.TrimSpace(strings.TrimPrefix(line, "/save"))
			if path == "" {
				path = "chat_history.txt"
			}
			if err := os.WriteFile(path, []byte(manager.Transcript(session)), 0o644); err != nil {
				log.Error().Err(err).Msg("Error saving transcript")
				continue
			}
			fmt.Printf("Transcript saved to %s\n", path)
		default:
			ask(ctx, manager, session, line, persona, model)
		}
	}
}

func runHistory(ctx context.Context, cfg *config.Config, embedder embedding.Provider, index bool, query string) {
	ix, err := history.Open(cfg.RAG.HistoryDBPath, embedder)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening history index")
	}

	if index {
		source := newAnalysisSource(ctx, cfg)
		if source == nil {
			log.Fatal().Msg("No analysis database configured")
		}
		recs, err := source.LoadAll(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading analyses")
		}
		for _, rec := range recs {
			if err := ix.Add(ctx, rec); err != nil {
				log.Fatal().Err(err).Int64("id", rec.ID).Msg("Error indexing analysis")
			}
		}
		log.Info().Int("count", len(recs)).Msg("Analyses indexed")
		return
	}

	matches, err := ix.Search(ctx, query, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("Error searching history")
	}
	for _, m := range matches {
		fmt.Printf("[%.3f] %s\n%s\n\n", m.Similarity, m.Filename, m.Result)
	}
}

func newEmbedder(cfg *config.Config) (embedding.Provider, error) {
	if cfg.EmbedLLM.Kind == "ollama" {
		return embedding.NewOllamaEmbedder(&cfg.EmbedLLM)
	}
	return embedding.NewEmbedder(cfg.EmbedLLM.Key, cfg.EmbedLLM.BaseURL, cfg.EmbedLLM.Model)
}

func newGateway(cfg *config.Config) *gateway.Gateway {
	gw := gateway.New(cfg.Gateway.RequestsPerMinute, cfg.Gateway.CacheCapacity, time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second)
	for i := range cfg.Backends {
		bc := cfg.Backends[i]
		var backend gateway.Backend
		switch bc.Kind {
		case "ollama":
			backend = gateway.NewOllamaBackend(&config.LLMConfig{BaseURL: bc.BaseURL})
		default:
			backend = gateway.NewOpenAIBackend(&config.LLMConfig{BaseURL: bc.BaseURL, Key: bc.Key})
		}
		for _, model := range bc.Models {
			gw.Register(model, backend)
		}
	}
	return gw
}

func newAnalysisSource(ctx context.Context, cfg *config.Config) analysis.Source {
	if cfg.Database.URL == "" {
		return nil
	}
	sqldb, err := analysis.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Error connecting to database")
	}
	store := analysis.NewStore(analysis.NewDB(sqldb, cfg.Database.Debug))
	if err := store.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Error initializing database")
	}
	return store
}
