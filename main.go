package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	catalogx "github.com/voxgate/voxgate/agent/catalog"
	contractx "github.com/voxgate/voxgate/agent/contract"
	eventlogx "github.com/voxgate/voxgate/agent/eventlog"
	llmx "github.com/voxgate/voxgate/agent/llm"
	nlux "github.com/voxgate/voxgate/agent/nlu"
	orchestratorx "github.com/voxgate/voxgate/agent/orchestrator"
	sessionx "github.com/voxgate/voxgate/agent/session"
	toolx "github.com/voxgate/voxgate/agent/tool"
	configx "github.com/voxgate/voxgate/pkg/config"
	_ "github.com/voxgate/voxgate/pkg/logger/autoload"
	openrouterx "github.com/voxgate/voxgate/pkg/openrouter"
)

type AppConfig struct {
	BusinessName  string `envconfig:"BUSINESS_NAME" split_words:"true" default:"Voxgate Services"`
	BusinessTone  string `envconfig:"BUSINESS_TONE" split_words:"true" default:"friendly and professional"`
	BusinessHours string `envconfig:"BUSINESS_HOURS" split_words:"true" default:"weekdays 9 AM - 6 PM, Saturday 10 AM - 4 PM"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")
	business := contractx.BusinessInfo{
		Name:  appCfg.BusinessName,
		Tone:  appCfg.BusinessTone,
		Hours: appCfg.BusinessHours,
	}

	store := buildStore(ctx)
	events := buildEventLog(ctx)
	model, classifier := buildModel(ctx)

	catalog, err := catalogx.NewBuiltinCatalog()
	if err != nil {
		log.Fatal().Err(err).Msg("build persona catalog")
	}

	registry := toolx.NewRegistry()
	if err := toolx.RegisterBuiltin(registry, toolx.BuiltinDeps{}); err != nil {
		log.Fatal().Err(err).Msg("register builtin tools")
	}

	orchCfg := configx.MustNew[orchestratorx.Config]("ORCHESTRATOR")
	orchCfg.Business = business

	orch, err := orchestratorx.New(store, catalog, registry, model, classifier, events, *orchCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	runChatLoop(ctx, orch, orchCfg.DefaultPersona)
}

func buildStore(ctx context.Context) sessionx.Store {
	redisCfg, err := configx.New[sessionx.RedisConfig]("REDIS")
	if err != nil {
		log.Info().Msg("no redis configured, using in-memory session store")
		return sessionx.NewMemoryStore()
	}
	store, err := sessionx.NewRedisStore(ctx, *redisCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect session store")
	}
	return store
}

func buildEventLog(ctx context.Context) contractx.EventLog {
	pgCfg := configx.MustNew[eventlogx.PostgresConfig]("POSTGRES")
	if !pgCfg.Enabled() {
		log.Info().Msg("no postgres configured, using in-memory event log")
		return eventlogx.NewMemoryEventLog()
	}
	events, err := eventlogx.NewBunEventLog(ctx, *pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect event log")
	}
	return events
}

func buildModel(ctx context.Context) (contractx.ChatModel, contractx.Classifier) {
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if !llmCfg.Enabled() {
		log.Info().Msg("no api key configured, using scripted model and rule classifier")
		return llmx.NewScriptedModel(), nlux.RuleClassifier{}
	}

	routerCfg := llmCfg.OpenRouterFor(contractx.PersonaTypePrimary)
	base, err := routerCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build chat model")
	}
	classifier := nlux.NewLLMClassifier(openrouterx.NewClient(routerCfg), llmCfg.Model)
	return llmx.NewEinoChatModel(base, llmCfg.Timeout), classifier
}

func runChatLoop(ctx context.Context, orch *orchestratorx.Orchestrator, personaID string) {
	conversationID := "local-" + uuid.NewString()[:8]

	greeting, err := orch.Initialize(ctx, conversationID, personaID, map[string]string{"channel": "cli"})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize conversation")
	}
	fmt.Println("agent:", greeting)
	fmt.Println("(type /end to finish)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you: ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/end" {
			break
		}

		result, err := orch.ProcessTurn(ctx, conversationID, text)
		if err != nil {
			log.Error().Err(err).Msg("process turn")
			continue
		}
		fmt.Println("agent:", result.Reply)
	}

	farewell, err := orch.End(ctx, conversationID)
	if err != nil {
		log.Error().Err(err).Msg("end conversation")
		return
	}
	fmt.Println("agent:", farewell)
}
