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

	_ "github.com/jackc/pgx/v5/stdlib"

	aidhandler "oncofeliz/internal/aid/handler"
	aidmetrics "oncofeliz/internal/aid/metrics"
	aidservice "oncofeliz/internal/aid/service"
	aidstore "oncofeliz/internal/aid/store"
	"oncofeliz/internal/authz"
	benhandler "oncofeliz/internal/beneficiary/handler"
	benmetrics "oncofeliz/internal/beneficiary/metrics"
	benservice "oncofeliz/internal/beneficiary/service"
	benstore "oncofeliz/internal/beneficiary/store"
	casehandler "oncofeliz/internal/cases/handler"
	casemetrics "oncofeliz/internal/cases/metrics"
	caseservice "oncofeliz/internal/cases/service"
	casestore "oncofeliz/internal/cases/store"
	decisionhandler "oncofeliz/internal/decision/handler"
	decisionmetrics "oncofeliz/internal/decision/metrics"
	decisionservice "oncofeliz/internal/decision/service"
	"oncofeliz/internal/documents"
	evhandler "oncofeliz/internal/evaluation/handler"
	evmetrics "oncofeliz/internal/evaluation/metrics"
	"oncofeliz/internal/evaluation/scorer"
	evservice "oncofeliz/internal/evaluation/service"
	evstore "oncofeliz/internal/evaluation/store"
	"oncofeliz/internal/identifier"
	"oncofeliz/internal/notify"
	"oncofeliz/internal/platform/config"
	"oncofeliz/internal/platform/httpserver"
	"oncofeliz/internal/platform/kafka"
	"oncofeliz/internal/platform/logger"
	"oncofeliz/internal/platform/metrics"
	"oncofeliz/internal/platform/observability"
	"oncofeliz/internal/platform/postgres"
	"oncofeliz/internal/platform/redis"
	reporthandler "oncofeliz/internal/reports/handler"
	reportservice "oncofeliz/internal/reports/service"
	"oncofeliz/internal/staff"
	httptransport "oncofeliz/internal/transport/http"
	"oncofeliz/pkg/platform/circuit"
	"oncofeliz/pkg/platform/middleware/auth"
	txcontext "oncofeliz/pkg/platform/tx"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "oncofeliz:", err)
		os.Exit(1)
	}
}

// Each store interface below is the union of what the services need from one
// aggregate.
type (
	caseStore interface {
		caseservice.Store
		evservice.CaseStore
	}
	evaluationStore interface {
		evservice.Store
		caseservice.EvaluationStore
	}
	beneficiaryStore interface {
		benservice.Store
		decisionservice.BeneficiaryStore
	}
)

// stores holds one implementation per aggregate: Postgres when DATABASE_URL is
// set, in-memory otherwise.
type stores struct {
	cases         caseStore
	evaluations   evaluationStore
	beneficiaries beneficiaryStore
	aid           aidservice.Store
	staff         staff.Store
	sequence      identifier.Sequence
	tx            txcontext.Runner
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, version)
	if err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := map[string]httptransport.HealthCheck{}

	// Persistence.
	var db *sql.DB
	if cfg.Database.URL != "" {
		if db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return err
		}
		defer db.Close()
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, db, log.Logger); err != nil {
				return err
			}
		}
		checks["postgres"] = db.PingContext
	} else {
		log.Warn("DATABASE_URL not set; using in-memory stores")
	}
	st := newStores(db, cfg, !cfg.IsProd())

	// Score proposals.
	var proposals evservice.ProposalStore = evstore.NewMemoryProposals()
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		proposals = evstore.NewRedisProposals(rdb.Client)
		checks["redis"] = rdb.Health
	}

	// Notifications.
	var publisher notify.Publisher = notify.NewLogPublisher(log.Logger)
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			log.Warn("kafka topic not ensured", "topic", cfg.Kafka.Topic, "error", err)
		}
		publisher = notify.NewKafkaPublisher(producer)
		checks["kafka"] = producer.Ping
	}
	dispatcher := notify.NewDispatcher(publisher, log.Logger, m.Registry)

	docs, err := documents.NewLocalStore(cfg.Documents.Dir, cfg.Documents.MaxBytes)
	if err != nil {
		return err
	}

	// Services.
	staffDir := staff.NewDirectory(st.staff)
	ids := identifier.New(st.sequence)
	caseSvc := caseservice.New(st.cases, st.evaluations, st.tx,
		caseservice.WithLogger(log.Logger),
		caseservice.WithMetrics(casemetrics.New(m.Registry)),
	)
	evOpts := []evservice.Option{
		evservice.WithLogger(log.Logger),
		evservice.WithMetrics(evmetrics.New(m.Registry)),
		evservice.WithProposalTTL(cfg.Redis.ProposalTTL),
	}
	if sc := scorer.New(cfg.Scorer.URL, cfg.Scorer.Timeout,
		scorer.WithBreaker(circuit.New("scorer")),
		scorer.WithLogger(log.Logger),
	); sc != nil {
		evOpts = append(evOpts, evservice.WithScorer(sc))
	}
	evSvc := evservice.New(st.cases, st.evaluations, proposals, docs, st.tx, evOpts...)
	decisionSvc := decisionservice.New(st.cases, st.beneficiaries, ids, staffDir, st.tx,
		decisionservice.WithLogger(log.Logger),
		decisionservice.WithMetrics(decisionmetrics.New(m.Registry)),
		decisionservice.WithNotifier(dispatcher),
	)
	benSvc := benservice.New(st.beneficiaries, st.cases, staffDir,
		benservice.WithLogger(log.Logger),
		benservice.WithMetrics(benmetrics.New(m.Registry)),
	)
	aidSvc := aidservice.New(st.aid, st.beneficiaries, st.cases, staffDir, ids, docs, st.tx,
		aidservice.WithLogger(log.Logger),
		aidservice.WithMetrics(aidmetrics.New(m.Registry)),
		aidservice.WithNotifier(dispatcher),
	)
	reportSvc := reportservice.New(aidSvc, reportservice.WithLogger(log.Logger))

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log.Logger,
		Metrics:   m,
		Validator: auth.NewHMACValidator(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience),
		Checks:    checks,
	},
		casehandler.New(caseSvc, log.Logger),
		evhandler.New(evSvc, log.Logger),
		decisionhandler.New(decisionSvc, log.Logger),
		benhandler.New(benSvc, log.Logger),
		aidhandler.New(aidSvc, log.Logger),
		reporthandler.New(reportSvc, log.Logger),
	)

	srv := httpserver.New(cfg.Server.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting oncofeliz", "addr", cfg.Server.Addr, "env", cfg.Env, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newStores(db *sql.DB, cfg *config.Config, seedStaff bool) stores {
	if db != nil {
		return stores{
			cases:         casestore.NewPostgres(db),
			evaluations:   evstore.NewPostgres(db),
			beneficiaries: benstore.NewPostgres(db),
			aid:           aidstore.NewPostgres(db),
			staff:         staff.NewPostgres(db),
			sequence:      identifier.NewPostgresSequence(db),
			tx:            postgres.NewTxRunner(db, cfg.Database.TxTimeout),
		}
	}
	var members []*staff.Member
	if seedStaff {
		members = devStaff()
	}
	return stores{
		cases:         casestore.NewInMemory(),
		evaluations:   evstore.NewInMemory(),
		beneficiaries: benstore.NewInMemory(),
		aid:           aidstore.NewInMemory(),
		staff:         staff.NewInMemory(members...),
		sequence:      identifier.NewMemorySequence(),
		tx:            &txcontext.LocalRunner{},
	}
}

// devStaff seeds one account per role for the in-memory profile.
func devStaff() []*staff.Member {
	return []*staff.Member{
		{ID: 1, FullName: "Administración", Role: authz.RoleAdmin, Active: true},
		{ID: 2, FullName: "Trabajo social", Role: authz.RoleSocialWorker, Active: true},
		{ID: 3, FullName: "Psicología", Role: authz.RolePsychologist, Active: true},
		{ID: 4, FullName: "Asistencia", Role: authz.RoleAssistant, Active: true},
	}
}
