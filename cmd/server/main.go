package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"replicare/internal/alerting"
	"replicare/internal/audit"
	"replicare/internal/compliance"
	compliancemetrics "replicare/internal/compliance/metrics"
	"replicare/internal/failover"
	failovermetrics "replicare/internal/failover/metrics"
	"replicare/internal/platform/config"
	"replicare/internal/platform/httpserver"
	"replicare/internal/platform/kafka"
	"replicare/internal/platform/logger"
	"replicare/internal/platform/redis"
	"replicare/internal/platform/token"
	"replicare/internal/record"
	recordmetrics "replicare/internal/record/metrics"
	recordservice "replicare/internal/record/service"
	"replicare/internal/replication"
	replicationmetrics "replicare/internal/replication/metrics"
	"replicare/internal/scheduler"
	transport "replicare/internal/transport/http"
)

// ruleSetVersion names the active built-in rule set. Bump it when a rule's
// semantics change so verdict history stays attributable.
const ruleSetVersion = "pipeda-2026.1"

// main wires dependencies and owns the process lifecycle. Domain logic lives
// in the internal services; nothing here makes a compliance decision.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "replicare: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		auditStore   audit.Store
		recordStore  record.Store
		verdictStore compliance.VerdictStore
		reportStore  compliance.ReportStore
	)
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := applySchemas(ctx, db); err != nil {
			return err
		}
		auditStore = audit.NewPostgresStore(db)
		recordStore = record.NewPostgresStore(db)
		verdictStore = compliance.NewPostgresVerdictStore(db)
		reportStore = compliance.NewPostgresReportStore(db)
		log.Info("postgres stores initialized")
	} else {
		auditStore = audit.NewInMemoryStore()
		recordStore = record.NewInMemoryStore()
		verdictStore = compliance.NewInMemoryVerdictStore()
		reportStore = compliance.NewInMemoryReportStore()
		log.Warn("postgres not configured, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var (
		reportCache   compliance.ReportCache
		snapshotCache replication.SnapshotCache
	)
	if redisClient != nil {
		defer redisClient.Close()
		reportCache = compliance.NewRedisReportCache(redisClient)
		snapshotCache = replication.NewRedisSnapshotCache(redisClient)
		log.Info("redis cache initialized")
	}

	publisher, err := kafka.New(ctx, cfg.Kafka, log)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	var notifier alerting.Notifier = alerting.NewLogNotifier(log)
	if publisher != nil {
		defer publisher.Close()
		notifier = alerting.NewKafkaNotifier(publisher)
		log.Info("kafka notifier initialized", "topic", cfg.Kafka.AlertTopic)
	}

	trail := audit.NewTrail(auditStore, log, audit.WithMaxRetries(cfg.Audit.AppendRetries))
	auditWorker := audit.NewWorker(trail, cfg.Audit.WorkerBuffer, log)

	rules := compliance.DefaultRuleSet(ruleSetVersion, compliance.DefaultRuleSetConfig{
		RequiredEncryptionLevel: cfg.Compliance.RequiredEncryptionLevel,
		ConsentTTL:              cfg.Compliance.ConsentTTL,
		DefaultRetention:        cfg.Audit.Retention,
	})
	compMetrics := compliancemetrics.New()
	validator := compliance.NewValidator(rules, verdictStore, trail, log, compMetrics)
	scorer := compliance.NewScorer(verdictStore, reportStore, reportCache, trail, notifier, log,
		compMetrics, cfg.Compliance.AlertThreshold, cfg.Compliance.ScoreWindow)

	recordSvc := recordservice.New(recordStore, validator, trail, log, recordmetrics.New(), cfg.PrimaryRegion)

	monitor := replication.NewMonitor(replication.Thresholds{
		WarningLag:          cfg.Replication.WarningLag,
		BreachLag:           cfg.Replication.BreachLag,
		MaxConsecutiveFails: cfg.Replication.MaxConsecutiveFails,
		RecoveryConfirms:    cfg.Replication.RecoveryConfirms,
	}, auditWorker, snapshotCache, log, replicationmetrics.New())

	orchestrator := failover.NewOrchestrator(failover.Config{
		PrimaryRegion:  cfg.PrimaryRegion,
		TargetRegion:   cfg.SecondaryRegion,
		WarningLag:     cfg.Replication.WarningLag,
		StableConfirms: cfg.Replication.StableConfirms,
	}, trail, notifier, log, failovermetrics.New())
	coordinator := failover.NewCoordinator(orchestrator, reportStore, reportCache, cfg.SecondaryRegion, log)

	sched := scheduler.New(log)
	regions := []string{cfg.PrimaryRegion, cfg.SecondaryRegion}
	if err := sched.Add(cfg.Compliance.AuditCycle, "audit-cycle",
		scheduler.AuditCycleJob(scorer, regions, log)); err != nil {
		return fmt.Errorf("schedule audit cycle: %w", err)
	}
	if err := sched.Add(cfg.Replication.WatchdogCycle, "replication-watchdog",
		scheduler.WatchdogJob(monitor, cfg.Replication.SampleDeadline, log)); err != nil {
		return fmt.Errorf("schedule watchdog: %w", err)
	}
	if err := sched.Add(cfg.Audit.CompactionCycle, "audit-compaction",
		scheduler.CompactionJob(trail, verdictStore, orchestrator, cfg.Audit.Retention, cfg.Compliance.ScoreWindow, log)); err != nil {
		return fmt.Errorf("schedule compaction: %w", err)
	}

	handler := transport.New(recordSvc, monitor, orchestrator, coordinator,
		reportStore, reportCache, trail, token.NewValidator(cfg.JWTSigningKey), log)
	srv := httpserver.New(cfg.Addr, handler.Router())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting replicare core", "addr", cfg.Addr,
			"primary_region", cfg.PrimaryRegion,
			"secondary_region", cfg.SecondaryRegion,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func applySchemas(ctx context.Context, db *sql.DB) error {
	for _, schema := range []string{audit.Schema, record.Schema, compliance.Schema} {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
