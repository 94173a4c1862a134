package main

import (
	"context"
	"flag"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/game"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	digEvery     = 90  // тиков между раскопками под ногами
	turnEvery    = 240 // тиков между поворотами
	reportEvery  = 60  // тиков между сводками
	turnAngleRad = math.Pi / 3
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV VOXEL_CONFIG)")
	ticks := flag.Int("ticks", 1200, "число тиков симуляции (0 - до сигнала)")
	dt := flag.Float64("dt", 1.0/60, "длительность тика в секундах")
	seed := flag.Int64("seed", math.MinInt64, "переопределить сид мира")
	metricsAddr := flag.String("metrics", "", "адрес /metrics (переопределяет конфигурацию)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *seed != math.MinInt64 {
		cfg.Generation.Seed = *seed
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logging.Configure(cfg.Logging.Dir, level)
	if err := logging.GetLoggerManager().ConfigureComponents(cfg.Logging.Components); err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := logging.InitDefaultLogger("voxelsim"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer func() { _ = logging.GetLoggerManager().CloseAll() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Error("Ошибка остановки OpenTelemetry: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	metrics := observability.NewWorldMetrics(registry)
	if addr := cfg.Metrics.GetAddr(); addr != "" {
		srv := observability.StartMetricsServer(addr, registry)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	session, err := game.NewSession(cfg, metrics)
	if err != nil {
		logging.Error("❌ Ошибка создания сессии: %v", err)
		return
	}

	monitor, err := observability.NewProcessMonitor()
	if err != nil {
		logging.Warn("Статистика процесса недоступна: %v", err)
	}

	logging.Info("🚀 Симуляция: seed=%d, тиков=%d, dt=%.4f", cfg.Generation.Seed, *ticks, *dt)
	run(ctx, session, *ticks, *dt)

	current, _ := session.World.Chunk(session.World.ChunkCoordsAt(session.Player.Position))
	stats := session.World.Stats()
	logging.Info("📊 Итог: тиков %d, правок %d, чанков загружено %d, в очереди %d",
		session.Ticks(), session.Edits(), stats.Loaded, stats.Pending)
	if current != nil {
		logging.Info("📊 Чанк игрока %v: digest %016x", current.Coords, current.Digest())
	}
	logging.Info("📊 Игрок: %s", session.Player)
	if monitor != nil {
		if ps, err := monitor.Snapshot(); err == nil {
			logging.Info("📊 Процесс: %s", ps)
		}
	}

	if err := session.Close(); err != nil {
		logging.Error("Ошибка закрытия сессии: %v", err)
	}
	logging.Info("👋 Симуляция завершена")
}

// run выполняет сценарий: идти вперёд, поворачивать, прыгать при упоре, копать под собой
func run(ctx context.Context, s *game.Session, ticks int, dt float64) {
	in := physics.Input{Forward: 1}
	var last vec.Vec3Float

	for i := 1; ticks == 0 || i <= ticks; i++ {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения на тике %d", i)
			return
		default:
		}

		if i%turnEvery == 0 {
			in.Yaw += turnAngleRad
		}
		in.Jump = blocked(last, s.Player.Position, dt, s.Player.MaxSpeed)
		last = s.Player.Position

		res, err := s.Tick(ctx, dt, in)
		if err != nil {
			logging.Error("❌ Тик %d: %v", i, err)
			return
		}

		if i%digEvery == 0 && res.OnGround {
			if _, err := s.DigBelow(); err != nil {
				logging.Error("❌ Раскопка на тике %d: %v", i, err)
			}
		}
		if i%reportEvery == 0 {
			stats := s.World.Stats()
			logging.Info("Тик %d: %s, чанк %v, загружено %d, контактов %d",
				i, s.Player, res.Chunk, stats.Loaded, res.Contacts)
		}
	}
}

// blocked - игрок почти не сдвинулся по горизонтали за тик при полном вводе
func blocked(prev, cur vec.Vec3Float, dt, speed float64) bool {
	if prev == (vec.Vec3Float{}) {
		return false
	}
	moved := cur.Horizontal().Sub(prev.Horizontal()).Length()
	return moved < 0.25*speed*dt
}
