// Command worker is the content pipeline's process entrypoint: it polls
// the quest-content-queue for ARTICLE/COMPANY trigger messages and runs
// the corresponding phase DAG to completion for each one (spec §6).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Londondannyboy/quest-sub002/internal/activity"
	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/config"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/logger"
	"github.com/Londondannyboy/quest-sub002/internal/metrics"
	"github.com/Londondannyboy/quest-sub002/internal/persistence"
	"github.com/Londondannyboy/quest-sub002/internal/persistence/repository"
	"github.com/Londondannyboy/quest-sub002/internal/queue"
	"github.com/Londondannyboy/quest-sub002/internal/reconcile"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/article"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/company"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)
	appLogger.Info("starting content pipeline worker", "concurrency", cfg.Server.Concurrency)

	db, err := persistence.OpenDB(cfg.Database)
	if err != nil {
		appLogger.Error("failed to open relational store", "error", err)
		os.Exit(1)
	}
	defer persistence.Close(db)
	appLogger.Info("relational store connected")

	limiter, err := activity.NewRedisRateLimiter(cfg.Redis)
	if err != nil {
		appLogger.Warn("redis rate limiter unavailable, invoking activities unthrottled", "error", err)
		limiter = nil
	} else {
		appLogger.Info("redis rate limiter connected")
	}

	registry := buildActivityRegistry()
	guarded := activity.NewGuardedManager(registry, limiter, cfg.RateLimit, appLogger)

	articles := repository.NewArticleRepository(db)
	companies := repository.NewCompanyRepository(db)
	coordinator := persistence.NewCoordinator(articles, companies)

	// store_upsert is the coordinator's own write path exposed as an
	// activity so phases and any external caller invoke it identically
	// (spec §6); registering it here rather than in buildActivityRegistry
	// keeps the coordinator wiring in one place.
	if err := registry.Register(coordinator.StoreUpsertActivity()); err != nil {
		appLogger.Error("failed to register store_upsert activity", "error", err)
		os.Exit(1)
	}

	graphBaseURL := getEnv("GRAPH_BASE_URL", "http://localhost:8090")
	graphAdapter := adapter.NewGraphUpsertAdapter(graphBaseURL)
	graphSync := persistence.NewGraphSync(graphAdapter, articles, companies)

	llmClient := buildLLMClient()
	imageGen := adapter.NewImageGenerateAdapter(getEnv("IMAGE_API_KEY", ""))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		appLogger.Warn("failed to register prometheus collectors", "error", err)
	}

	articlePipeline := article.NewPipeline(
		coordinator, graphSync, guarded, llmClient, graphAdapter, imageGen, cfg.Pipeline,
		metrics.NewEngineObserver("article"),
	)
	companyPipeline := company.NewPipeline(
		coordinator, graphSync, guarded, llmClient, graphAdapter, imageGen, cfg.Pipeline,
		metrics.NewEngineObserver("company"),
	)

	taskQueue := queue.NewInMemoryQueue(256, 5*time.Minute)

	metricsSrv := startMetricsServer(getEnv("METRICS_ADDR", ":9090"), appLogger)

	var reconcileScheduler *reconcile.Scheduler
	if cfg.Reconcile.Enabled {
		reconciler := reconcile.NewReconciler(coordinator, graphSync, cfg.Reconcile.BatchSize, appLogger)
		var err error
		reconcileScheduler, err = reconcile.NewScheduler(cfg.Reconcile.CronSpec, reconciler, cfg.Reconcile.JobTimeout, appLogger)
		if err != nil {
			appLogger.Error("failed to start reconciliation scheduler", "error", err)
			os.Exit(1)
		}
		reconcileScheduler.Start()
		appLogger.Info("reconciliation scheduler started", "cron_spec", cfg.Reconcile.CronSpec)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go runConsumerLoop(ctx, &wg, taskQueue, articlePipeline, companyPipeline, appLogger, cfg.Server.Concurrency)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown
	appLogger.Info("shutdown initiated", "signal", sig)

	cancel()
	wg.Wait()

	if reconcileScheduler != nil {
		reconcileScheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("metrics server shutdown failed", "error", err)
	}

	appLogger.Info("worker stopped")
}

// buildActivityRegistry registers the four activities phases invoke by
// name through the GuardedManager (spec §6): news_search, deep_research,
// crawler, url_validate. The remaining adapters (llm_complete,
// image_generate, graph upsert/context) are held as typed objects
// directly by the phases that need them, per the pack's guarded-vs-typed
// split recorded in DESIGN.md.
func buildActivityRegistry() *activity.Manager {
	registry := activity.NewManager()

	newsSearch := adapter.NewNewsSearchAdapter(getEnv("NEWS_SEARCH_BASE_URL", "http://localhost:8091"))
	deepResearch := adapter.NewDeepResearchAdapter(getEnv("DEEP_RESEARCH_BASE_URL", "http://localhost:8092"))
	crawler := adapter.NewCrawlerAdapter()
	urlValidate := adapter.NewURLValidateAdapter()

	mustRegister(registry, adapter.NewTypedActivity("news_search", newsSearch.Search))
	mustRegister(registry, adapter.NewTypedActivity("deep_research", deepResearch.Research))
	mustRegister(registry, adapter.NewTypedActivity("crawler", crawler.Crawl))
	mustRegister(registry, adapter.NewTypedActivity("url_validate", urlValidate.Validate))

	return registry
}

func mustRegister(registry *activity.Manager, a activity.Activity) {
	if err := registry.Register(a); err != nil {
		panic(err) // only reachable on an empty activity name, a wiring bug
	}
}

// buildLLMClient picks the completion backend via LLM_PROVIDER, defaulting
// to Anthropic to match the teacher's own default provider choice.
func buildLLMClient() adapter.LLMClient {
	model := getEnv("LLM_MODEL", "")
	switch getEnv("LLM_PROVIDER", "anthropic") {
	case "openai":
		if model == "" {
			model = "gpt-4o"
		}
		return adapter.NewOpenAILLMClient(getEnv("OPENAI_API_KEY", ""), model)
	default:
		if model == "" {
			model = "claude-sonnet-4-5"
		}
		return adapter.NewAnthropicLLMClient(getEnv("ANTHROPIC_API_KEY", ""), model)
	}
}

func startMetricsServer(addr string, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info("metrics server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "error", err)
		}
	}()
	return srv
}

// runConsumerLoop drains taskQueue until ctx is cancelled, fanning
// deliveries out across a bounded worker pool sized by concurrency — the
// same pool-per-wave shape the phase executor itself uses for sub-fanout
// (internal/activity.Pool), applied here at the top of the process.
func runConsumerLoop(
	ctx context.Context,
	wg *sync.WaitGroup,
	q queue.Queue,
	articlePipeline *article.Pipeline,
	companyPipeline *company.Pipeline,
	log *logger.Logger,
	concurrency int,
) {
	defer wg.Done()

	sem := make(chan struct{}, concurrency)
	var inflight sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			inflight.Wait()
			return
		default:
		}

		msg, handle, err := q.Receive(ctx, 2*time.Second)
		if err != nil {
			if errors.Is(err, queue.ErrNoMessage) || ctx.Err() != nil {
				continue
			}
			log.Warn("queue receive failed", "error", err)
			continue
		}

		sem <- struct{}{}
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			defer func() { <-sem }()

			result, err := process(ctx, articlePipeline, companyPipeline, msg, log)
			if err != nil {
				log.Error("workflow run failed", "workflow_id", msg.WorkflowID, "type", msg.WorkflowType, "error", err)
				if nackErr := q.Nack(ctx, handle); nackErr != nil {
					log.Error("nack failed", "error", nackErr)
				}
				return
			}

			log.Info("workflow run finished", "workflow_id", msg.WorkflowID, "type", msg.WorkflowType,
				"status", result.Status, "events", result.Events)

			// A status==failed run (any error other than cancellation or a
			// recognized Business-class terminal outcome) is redelivered
			// for retry. Every other status (success,
			// or a Business-class terminal outcome like duplicate/exists/
			// draft/cancelled) is a final answer for this workflow_id and
			// must be acked so the queue doesn't retry it forever (spec §7,
			// E3's duplicate scenario).
			if result.Status == domain.StatusFailed {
				if nackErr := q.Nack(ctx, handle); nackErr != nil {
					log.Error("nack failed", "error", nackErr)
				}
				return
			}
			if ackErr := q.Ack(ctx, handle); ackErr != nil {
				log.Error("ack failed", "error", ackErr)
			}
		}()
	}
}

// process decodes and runs one queue message to completion. Its error
// return is reserved for queue-level problems (a malformed payload, an
// unknown workflow type) that will never succeed on redelivery either —
// the caller still nacks these, same as before, since there's no
// domain.Result to classify. Everything the pipeline itself produces,
// success or terminal business failure, comes back as a domain.Result for
// the caller to ack/nack against (spec §7).
func process(ctx context.Context, articlePipeline *article.Pipeline, companyPipeline *company.Pipeline, msg queue.Message, log *logger.Logger) (domain.Result, error) {
	executionID := uuid.NewString()
	runLogger := log.WithWorkflow(msg.WorkflowID, executionID)

	switch msg.WorkflowType {
	case queue.WorkflowArticle:
		var input domain.ArticleInput
		if err := json.Unmarshal(msg.Input, &input); err != nil {
			return domain.Result{}, fmt.Errorf("decode article input: %w", err)
		}
		if err := input.Validate(); err != nil {
			return domain.Result{}, fmt.Errorf("validate article input: %w", err)
		}
		runLogger.Info("running article pipeline", "topic", input.Topic)
		state, runErr := articlePipeline.Run(ctx, executionID, &input)
		return resultFromRun(state, runErr), nil

	case queue.WorkflowCompany:
		var input domain.CompanyInput
		if err := json.Unmarshal(msg.Input, &input); err != nil {
			return domain.Result{}, fmt.Errorf("decode company input: %w", err)
		}
		if err := input.Validate(); err != nil {
			return domain.Result{}, fmt.Errorf("validate company input: %w", err)
		}
		runLogger.Info("running company pipeline", "url", input.URL)
		state, runErr := companyPipeline.Run(ctx, executionID, &input)
		return resultFromRun(state, runErr), nil

	default:
		return domain.Result{}, fmt.Errorf("unknown workflow type %q", msg.WorkflowType)
	}
}

// resultFromRun classifies a finished pipeline run into its spec §7
// outcome, carrying along whatever soft-skip events accumulated in state
// regardless of whether the run ultimately succeeded or failed.
func resultFromRun(state *engine.ExecutionState, runErr error) domain.Result {
	var events []string
	if state != nil {
		events = state.Events()
	}
	return domain.Result{Status: domain.StatusFromError(runErr), Events: events}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
