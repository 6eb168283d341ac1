package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	classifierx "github.com/tanpawarit/restaurant-concierge/flow/classifier"
	composerx "github.com/tanpawarit/restaurant-concierge/flow/composer"
	contractx "github.com/tanpawarit/restaurant-concierge/flow/contract"
	controllerx "github.com/tanpawarit/restaurant-concierge/flow/controller"
	handlerx "github.com/tanpawarit/restaurant-concierge/flow/handler"
	"github.com/tanpawarit/restaurant-concierge/flow/preference"
	promptx "github.com/tanpawarit/restaurant-concierge/flow/prompt"
	statex "github.com/tanpawarit/restaurant-concierge/flow/state"
	toolx "github.com/tanpawarit/restaurant-concierge/flow/tool"
	configx "github.com/tanpawarit/restaurant-concierge/pkg/config"
	_ "github.com/tanpawarit/restaurant-concierge/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/restaurant-concierge/pkg/openrouter"
)

type AppConfig struct {
	CustomerName     string        `envconfig:"CUSTOMER_NAME" split_words:"true"`
	PostgresDSN      string        `envconfig:"POSTGRES_DSN" split_words:"true"`
	SQLitePath       string        `envconfig:"SQLITE_PATH" split_words:"true" default:"concierge.db"`
	MaxClarifyRounds int           `envconfig:"MAX_CLARIFY_ROUNDS" split_words:"true" default:"3"`
	ClassifyTimeout  time.Duration `envconfig:"CLASSIFY_TIMEOUT" split_words:"true" default:"10s"`
}

func main() {
	message := flag.String("m", "", "handle one message and exit")
	sessionID := flag.String("session", "", "interactive session id (generated when empty)")

	appCfg := configx.MustNew[AppConfig]("CONCIERGE")
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")

	ctx := context.Background()

	chatModel, err := openRouterCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create chat model")
	}

	prompts := promptx.LoadPromptSet()
	cls, err := classifierx.NewLLMClassifier(ctx, chatModel, prompts.Classifier, appCfg.ClassifyTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("create classifier")
	}

	store, gateway, cleanup, err := buildStorage(ctx, appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build storage")
	}
	defer cleanup()

	registry, err := handlerx.NewRegistry(gateway)
	if err != nil {
		log.Fatal().Err(err).Msg("build handler registry")
	}

	ctrl, err := controllerx.New(store, cls, registry, composerx.New(), gateway, controllerx.Config{
		CustomerName:     appCfg.CustomerName,
		MaxClarifyRounds: appCfg.MaxClarifyRounds,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build controller")
	}

	if strings.TrimSpace(*message) != "" {
		response, err := ctrl.HandleMessage(ctx, *message)
		if err != nil {
			log.Fatal().Err(err).Msg("handle message")
		}
		fmt.Println(response)
		return
	}

	runInteractive(ctx, ctrl, *sessionID)
}

// buildStorage wires the preference store and the tool gateway. Postgres
// serves both from one bun pool; without a DSN the store falls back to a
// local SQLite file and tools go through an MCP server when one is
// configured.
func buildStorage(ctx context.Context, cfg *AppConfig) (preference.Store, contractx.ToolGateway, func(), error) {
	if dsn := strings.TrimSpace(cfg.PostgresDSN); dsn != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db := bun.NewDB(sqldb, pgdialect.New())

		gateway, err := toolx.NewSQLGateway(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		if err := gateway.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}

		store, err := preference.NewPostgresStoreFromDB(db)
		if err != nil {
			db.Close()
			return nil, nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}

		return store, gateway, func() { db.Close() }, nil
	}

	store, err := preference.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, nil, nil, err
	}

	mcpCfg, err := configx.New[toolx.MCPConfig]("MCP")
	if err != nil {
		log.Warn().Err(err).Msg("no MCP tool server configured; tool actions unavailable")
		return store, toolx.UnavailableGateway{}, func() { store.Close() }, nil
	}

	gateway, err := toolx.NewMCPGateway(ctx, *mcpCfg)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	cleanup := func() {
		gateway.Close()
		store.Close()
	}
	return store, gateway, cleanup, nil
}

func runInteractive(ctx context.Context, ctrl *controllerx.Controller, sessionID string) {
	sessions := statex.NewSessionManager()
	session := sessions.GetOrCreate(sessionID, time.Now())

	fmt.Printf("Restaurant concierge ready (session %s). Type 'reset' to start over, 'quit' or 'exit' to leave.\n", session.ID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			fmt.Println("Goodbye!")
			return
		}
		if line == "reset" {
			sessions.Reset(session.ID)
			session = sessions.GetOrCreate(session.ID, time.Now())
			fmt.Println("Okay, starting over.")
			continue
		}

		response, err := ctrl.HandleTurn(ctx, session, line)
		if err != nil {
			log.Error().Err(err).Msg("turn failed")
			continue
		}
		fmt.Println(response)
	}

	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("read stdin")
	}
}
