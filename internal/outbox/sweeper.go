package outbox

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dropDatabas3/boardhole/internal/domain/repository"
	"github.com/dropDatabas3/boardhole/internal/email"
	"github.com/dropDatabas3/boardhole/internal/metrics"
	"github.com/dropDatabas3/boardhole/internal/observability/logger"
)

// SweeperConfig controla la cadencia y el paralelismo del worker.
type SweeperConfig struct {
	// SweepInterval cada cuánto se revisan registros reintentables.
	SweepInterval time.Duration

	// CleanupInterval cada cuánto corre la limpieza por retención.
	CleanupInterval time.Duration

	// StatsInterval cada cuánto se loguean/exportan las estadísticas.
	StatsInterval time.Duration

	// WorkerCount máximo de envíos concurrentes por pasada.
	WorkerCount int

	// SendTimeout tope por intento de envío SMTP.
	SendTimeout time.Duration
}

func (c *SweeperConfig) normalize() {
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 24 * time.Hour
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = time.Hour
	}
	if c.WorkerCount < 1 {
		c.WorkerCount = 4
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
}

// SweepResult resume una pasada del sweeper.
type SweepResult struct {
	Found  int
	Sent   int
	Failed int
	// Skipped registros que otro worker reclamó primero.
	Skipped int
}

// Sweeper es el worker periódico del outbox: reintenta envíos PENDING
// vencidos, limpia registros terminales viejos y reporta estadísticas.
// El envío dentro de una pasada está acotado por un semáforo de
// WorkerCount permisos.
type Sweeper struct {
	svc    *Service
	mailer email.Service
	cfg    SweeperConfig

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper arma el worker. No lo arranca: llamar Run en una goroutine.
func NewSweeper(svc *Service, mailer email.Service, cfg SweeperConfig) *Sweeper {
	cfg.normalize()
	return &Sweeper{
		svc:    svc,
		mailer: mailer,
		cfg:    cfg,
		stop:   make(chan struct{}),
	}
}

// Run ejecuta el bucle principal hasta que se cancele el contexto o se
// llame Stop. Hace una pasada inmediata al arrancar para no esperar el
// primer tick tras un reinicio.
func (w *Sweeper) Run(ctx context.Context) {
	w.wg.Add(1)
	defer w.wg.Done()

	log := logger.From(ctx).With(logger.Component("outbox.sweeper"))
	log.Info("outbox sweeper started",
		logger.String("sweep_interval", w.cfg.SweepInterval.String()),
		logger.Int("worker_count", w.cfg.WorkerCount),
	)

	sweepTicker := time.NewTicker(w.cfg.SweepInterval)
	defer sweepTicker.Stop()
	cleanupTicker := time.NewTicker(w.cfg.CleanupInterval)
	defer cleanupTicker.Stop()
	statsTicker := time.NewTicker(w.cfg.StatsInterval)
	defer statsTicker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox sweeper stopped", logger.Err(ctx.Err()))
			return
		case <-w.stop:
			log.Info("outbox sweeper stopped")
			return
		case <-sweepTicker.C:
			w.sweep(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		case <-statsTicker.C:
			w.reportStats(ctx)
		}
	}
}

// Stop señala el fin del bucle. Idempotente; no espera a los envíos en
// vuelo, para eso está Shutdown.
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Shutdown detiene el bucle y espera a que termine la pasada en curso o
// venza el contexto.
func (w *Sweeper) Shutdown(ctx context.Context) error {
	w.Stop()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SweepOnce procesa una tanda de registros reintentables y retorna el
// resumen. Expuesto para el CLI de operación y los tests.
func (w *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	rows, err := w.svc.FindRetriableEmails(ctx)
	if err != nil {
		return res, err
	}
	res.Found = len(rows)
	if len(rows) == 0 {
		return res, nil
	}

	sem := semaphore.NewWeighted(int64(w.cfg.WorkerCount))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, row := range rows {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(row *repository.EmailOutbox) {
			defer wg.Done()
			defer sem.Release(1)

			switch w.processRow(ctx, row) {
			case rowSent:
				mu.Lock()
				res.Sent++
				mu.Unlock()
			case rowFailed:
				mu.Lock()
				res.Failed++
				mu.Unlock()
			case rowSkipped:
				mu.Lock()
				res.Skipped++
				mu.Unlock()
			}
		}(row)
	}
	wg.Wait()
	return res, nil
}

type rowOutcome int

const (
	rowSkipped rowOutcome = iota
	rowSent
	rowFailed
)

// processRow intenta reenviar un registro. Reclama PENDING→PROCESSING
// primero: si el claim falla, otro worker ya lo tiene y no se toca.
func (w *Sweeper) processRow(ctx context.Context, row *repository.EmailOutbox) rowOutcome {
	log := logger.From(ctx).With(
		logger.Component("outbox.sweeper"),
		logger.OutboxID(row.ID.String()),
		logger.Recipient(row.RecipientEmail),
		logger.RetryCount(row.RetryCount),
	)

	claimed, err := w.svc.ClaimForProcessing(ctx, row.ID)
	if err != nil {
		log.Error("claim failed", logger.Err(err))
		return rowSkipped
	}
	if !claimed {
		log.Debug("row already claimed by another worker")
		return rowSkipped
	}

	msg, err := email.NewMessage(row.RecipientEmail, row.Subject, row.Body)
	if err != nil {
		// Registro corrupto: contarlo como intento fallido para que el
		// tope de reintentos termine marcándolo FAILED.
		log.Error("invalid outbox row", logger.Err(err))
		_ = w.svc.RecordFailure(ctx, row.ID, err.Error())
		metrics.OutboxEmailsFailed.Inc()
		return rowFailed
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.SendTimeout)
	err = w.mailer.SendEmail(sendCtx, msg)
	cancel()

	if err != nil {
		if rerr := w.svc.RecordFailure(ctx, row.ID, err.Error()); rerr != nil {
			log.Error("record failure failed", logger.Err(rerr))
		}
		metrics.OutboxEmailsFailed.Inc()
		return rowFailed
	}

	if merr := w.svc.MarkAsSent(ctx, row.ID); merr != nil {
		log.Error("mark sent failed", logger.Err(merr))
	}
	metrics.OutboxEmailsSent.Inc()
	return rowSent
}

func (w *Sweeper) sweep(ctx context.Context) {
	log := logger.From(ctx).With(logger.Component("outbox.sweeper"))
	start := time.Now()

	res, err := w.SweepOnce(ctx)
	metrics.OutboxSweepDuration.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		log.Error("sweep failed", logger.Err(err))
		return
	}
	if res.Found > 0 {
		log.Info("sweep completed",
			logger.Int("found", res.Found),
			logger.Int("sent", res.Sent),
			logger.Int("failed", res.Failed),
			logger.Int("skipped", res.Skipped),
		)
	}
}

func (w *Sweeper) cleanup(ctx context.Context) {
	log := logger.From(ctx).With(logger.Component("outbox.sweeper"))
	deleted, err := w.svc.CleanupOldEmails(ctx)
	if err != nil {
		log.Error("cleanup failed", logger.Err(err))
		return
	}
	metrics.OutboxCleanupDeleted.Add(float64(deleted))
}

func (w *Sweeper) reportStats(ctx context.Context) {
	log := logger.From(ctx).With(logger.Component("outbox.sweeper"))
	stats, err := w.svc.GetStatistics(ctx)
	if err != nil {
		log.Error("stats failed", logger.Err(err))
		return
	}
	metrics.OutboxPendingGauge.Set(float64(stats.Pending))
	metrics.OutboxFailedGauge.Set(float64(stats.Failed))
	log.Info("outbox statistics",
		logger.Int64("pending", stats.Pending),
		logger.Int64("processing", stats.Processing),
		logger.Int64("sent", stats.Sent),
		logger.Int64("failed", stats.Failed),
		logger.Int64("total", stats.Total()),
	)
}
