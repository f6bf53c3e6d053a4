package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ivlev/phasekit/internal/assets"
	"github.com/ivlev/phasekit/internal/config"
	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/pose"
	"github.com/ivlev/phasekit/internal/preview"
	"github.com/ivlev/phasekit/internal/progress"
	"github.com/ivlev/phasekit/internal/turntable"
)

// Scenario - сцена превью: стадии драйвера, их отрисовка и входные
// события, которые подаются перед каждым кадром.
type Scenario struct {
	Name   string
	Stages []driver.Stage
	Scene  preview.Scene
	// Before вызывается перед тиком кадра i.
	Before func(ctx context.Context, i int, now time.Time) error
}

// scrollShare - доля ролика, за которую страница прокручивается до конца.
const scrollShare = 0.8

// ScrollScenario прокручивает страницу от верха до конца спейсера.
func ScrollScenario(dev *Device, cfg *config.Config) (*Scenario, error) {
	fps := 0
	if cfg.Smooth {
		fps = cfg.FPS
	}
	scroll := progress.NewScroll(cfg.SpacerHeight, fps)
	scroll.Jump(0)
	frames := cfg.TotalFrames()

	return &Scenario{
		Name: config.ModeScroll,
		Stages: []driver.Stage{
			&driver.AssemblyStage{Name: "device", Assembly: dev.Assembly, Source: scroll},
		},
		Scene: preview.DeviceScene(dev.Assembly.Rig(), dev.Geometry),
		Before: func(_ context.Context, i int, now time.Time) error {
			share := float64(i) / (float64(frames) * scrollShare)
			if share > 1 {
				share = 1
			}
			scroll.Observe(share*cfg.SpacerHeight, now)
			return nil
		},
	}, nil
}

// OscillateScenario гоняет всю таблицу по синусу, без участия скролла.
// Фаза синуса считается по номеру кадра, а не по часам, поэтому кадр 0
// всегда попадает в середину цикла.
func OscillateScenario(dev *Device, cfg *config.Config) (*Scenario, error) {
	osc := progress.NewOscillator(time.Time{}).AtFPS(cfg.FPS)
	frame := 0
	source := progress.Func(func(time.Time) float64 { return osc.FrameProgress(frame) })

	return &Scenario{
		Name: config.ModeOscillate,
		Stages: []driver.Stage{
			&driver.AssemblyStage{Name: "device", Assembly: dev.Assembly, Source: source, Direct: true},
		},
		Scene: preview.DeviceScene(dev.Assembly.Rig(), dev.Geometry),
		Before: func(_ context.Context, i int, _ time.Time) error {
			frame = i
			return nil
		},
	}, nil
}

// VinylScenario запускает загрузку пластинки на первом кадре, пока модель
// проигрывателя схлопывается из разобранного вида. Обложка загружается
// синхронно до старта: кадры идут по синтетическому времени, и фоновая
// подготовка сделала бы момент завершения зависимым от планировщика.
func VinylScenario() (*Scenario, error) {
	m, err := turntable.NewModel(turntable.DefaultComponents())
	if err != nil {
		return nil, err
	}
	m.SetProgress(1)
	deck := turntable.NewDeck(m)

	ids := make([]pose.ObjectID, 0, 6)
	for _, c := range turntable.DefaultComponents() {
		ids = append(ids, c.ID)
	}
	sleeve := assets.Procedural{Label: "sleeve", Box: pose.NewBox(pose.V(-25, 0, -25), pose.V(25, 1, 25))}

	return &Scenario{
		Name:   config.ModeVinyl,
		Stages: []driver.Stage{&driver.DeckStage{Name: "turntable", Deck: deck}},
		Scene:  preview.DeckScene(m, ids),
		Before: func(ctx context.Context, i int, now time.Time) error {
			if i != 0 {
				return nil
			}
			if _, err := sleeve.Bounds(ctx); err != nil {
				return fmt.Errorf("обложка: %w", err)
			}
			_, err := deck.Load(ctx, now, turntable.LoadOptions{
				OnComplete: func() { fmt.Println("[>] Пластинка загружена") },
			})
			return err
		},
	}, nil
}

// NewScenario собирает сцену по режиму из конфигурации.
func NewScenario(ctx context.Context, cfg *config.Config) (*Scenario, error) {
	switch cfg.Mode {
	case config.ModeVinyl:
		return VinylScenario()
	case config.ModeScroll, config.ModeOscillate:
		dev, err := BuildDevice(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Mode == config.ModeOscillate {
			return OscillateScenario(dev, cfg)
		}
		return ScrollScenario(dev, cfg)
	}
	return nil, fmt.Errorf("неизвестный режим %q", cfg.Mode)
}
