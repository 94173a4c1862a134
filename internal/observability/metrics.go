package observability

import (
	"net/http"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorldMetrics - Prometheus-метрики мира и физики.
// Нулевой указатель допустим: все методы тогда ничего не делают.
type WorldMetrics struct {
	loadedChunks    prometheus.Gauge
	pendingChunks   prometheus.Gauge
	generated       prometheus.Counter
	unloaded        prometheus.Counter
	generationTime  prometheus.Histogram
	blockEdits      *prometheus.CounterVec
	collisions      prometheus.Counter
	invariantErrors prometheus.Counter
}

// NewWorldMetrics создаёт метрики и регистрирует их в reg.
// nil reg означает глобальный регистр Prometheus.
func NewWorldMetrics(reg prometheus.Registerer) *WorldMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &WorldMetrics{
		loadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunks_loaded",
			Help:      "Количество загруженных чанков.",
		}),
		pendingChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunks_pending",
			Help:      "Чанков в очереди на генерацию.",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunks_generated_total",
			Help:      "Общее число сгенерированных чанков.",
		}),
		unloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunks_unloaded_total",
			Help:      "Общее число выгруженных чанков.",
		}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "chunk_generation_seconds",
			Help:      "Время генерации одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		blockEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "block_edits_total",
			Help:      "Успешные правки блоков игроком.",
		}, []string{"op"}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "physics",
			Name:      "collision_contacts_total",
			Help:      "Разрешённые контакты игрока с блоками.",
		}),
		invariantErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "world",
			Name:      "instance_invariant_errors_total",
			Help:      "Нарушения согласованности таблиц экземпляров.",
		}),
	}

	reg.MustRegister(
		m.loadedChunks, m.pendingChunks, m.generated, m.unloaded,
		m.generationTime, m.blockEdits, m.collisions, m.invariantErrors,
	)
	return m
}

func (m *WorldMetrics) SetLoaded(n int) {
	if m != nil {
		m.loadedChunks.Set(float64(n))
	}
}

func (m *WorldMetrics) SetPending(n int) {
	if m != nil {
		m.pendingChunks.Set(float64(n))
	}
}

// ChunkGenerated учитывает сгенерированный чанк и время генерации
func (m *WorldMetrics) ChunkGenerated(d time.Duration) {
	if m != nil {
		m.generated.Inc()
		m.generationTime.Observe(d.Seconds())
	}
}

func (m *WorldMetrics) ChunkUnloaded() {
	if m != nil {
		m.unloaded.Inc()
	}
}

// BlockEdit учитывает правку; op - "add" или "remove"
func (m *WorldMetrics) BlockEdit(op string) {
	if m != nil {
		m.blockEdits.WithLabelValues(op).Inc()
	}
}

func (m *WorldMetrics) CollisionContacts(n int) {
	if m != nil && n > 0 {
		m.collisions.Add(float64(n))
	}
}

func (m *WorldMetrics) InvariantError() {
	if m != nil {
		m.invariantErrors.Inc()
	}
}

// StartMetricsServer запускает HTTP-эндпоинт /metrics для gatherer.
// Возвращает сервер, чтобы вызывающий мог остановить его через Shutdown.
func StartMetricsServer(addr string, gatherer prometheus.Gatherer) *http.Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
