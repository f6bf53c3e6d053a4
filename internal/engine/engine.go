package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/phasekit/internal/config"
	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/effects"
	"github.com/ivlev/phasekit/internal/preview"
	"github.com/ivlev/phasekit/internal/system"
	"github.com/ivlev/phasekit/internal/video"
)

// maxSegmentSeconds ограничивает длину сегмента, чтобы длинные фазы тоже
// кодировались параллельно.
const maxSegmentSeconds = 2.0

type PreviewProject struct {
	Config   *config.Config
	Scenario *Scenario
	Encoder  video.VideoEncoder
	Effect   effects.Effect
	Pool     *system.ImagePool
	tempDir  string
}

func NewPreviewProject(cfg *config.Config, sc *Scenario, ve video.VideoEncoder) *PreviewProject {
	return &PreviewProject{
		Config:   cfg,
		Scenario: sc,
		Encoder:  ve,
		Effect:   effects.FromConfig(cfg),
		Pool:     system.NewImagePool(),
	}
}

// Simulate прогоняет драйвер по всем кадрам последовательно. Состояние
// анимаций (вращение, пружина скролла, схлопывание модели) зависит от
// предыдущих кадров, поэтому параллелится только отрисовка.
func (p *PreviewProject) Simulate(ctx context.Context, start time.Time) ([]driver.Snapshot, error) {
	frames := p.Config.TotalFrames()
	snaps := make([]driver.Snapshot, 0, frames)
	loop := driver.NewLoop(nil, p.Scenario.Stages...)
	frameDur := time.Second / time.Duration(p.Config.FPS)

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		now := start.Add(time.Duration(i) * frameDur)
		if p.Scenario.Before != nil {
			if err := p.Scenario.Before(ctx, i, now); err != nil {
				return nil, fmt.Errorf("кадр %d: %w", i, err)
			}
		}
		snap, err := loop.Tick(now)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// primaryPhase - фаза первой стадии, по ней режем ролик на сегменты.
func primaryPhase(s driver.Snapshot) string {
	if len(s.Stages) == 0 {
		return ""
	}
	return s.Stages[0].Phase
}

// PlanSegments режет последовательность кадров на сегменты: новый
// сегмент начинается при смене фазы или по достижении maxFrames.
func PlanSegments(snaps []driver.Snapshot, maxFrames int, base config.SegmentParams) []config.SegmentParams {
	if maxFrames < 1 {
		maxFrames = 1
	}
	var segs []config.SegmentParams
	for i, s := range snaps {
		phase := primaryPhase(s)
		n := len(segs)
		if n == 0 || segs[n-1].Phase != phase || segs[n-1].Frames >= maxFrames {
			seg := base
			seg.Index = n
			seg.FirstFrame = i
			seg.Frames = 0
			seg.Phase = phase
			segs = append(segs, seg)
			n++
		}
		segs[n-1].Frames++
	}
	return segs
}

func (p *PreviewProject) Run(ctx context.Context) error {
	startTime := time.Now()
	var simEnd, encodeEnd time.Time

	var err error
	p.tempDir, err = os.MkdirTemp("", "phasekit_")
	if err != nil {
		return err
	}
	defer os.RemoveAll(p.tempDir)

	host, hostErr := system.ReadHostStats()
	if hostErr != nil {
		log.Printf("[!] Не удалось получить ресурсы системы: %v", hostErr)
	}
	frameBytes := uint64(p.Config.Width * p.Config.Height * 4)
	workers := host.SuggestWorkers(p.Config.Workers, frameBytes)

	fmt.Println("--- [PROJECT: PHASE PREVIEW] ---")
	fmt.Printf("[*] Режим: %s | Кадров: %d\n", p.Scenario.Name, p.Config.TotalFrames())
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Воркеров: %d\n", p.Config.Width, p.Config.Height, p.Config.FPS, workers)
	fmt.Println("-----------------------------")

	snaps, err := p.Simulate(ctx, startTime)
	if err != nil {
		return fmt.Errorf("ошибка симуляции: %w", err)
	}
	simEnd = time.Now()

	opts := preview.DefaultOptions()
	opts.HUD = p.Config.HUD
	opts.QRSize = p.Config.QRSize
	opts.Title = p.Scenario.Name
	canvas := preview.NewCanvas(p.Config.Width, p.Config.Height, p.Scenario.Scene, opts, p.Pool)

	base := config.SegmentParams{
		Width:   p.Config.Width,
		Height:  p.Config.Height,
		FPS:     p.Config.FPS,
		Encoder: p.Config.VideoEncoder,
		Quality: p.Config.Quality,
	}
	maxFrames := int(maxSegmentSeconds * float64(p.Config.FPS))
	segs := PlanSegments(snaps, maxFrames, base)
	results := make([]string, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, seg := range segs {
		g.Go(func() error {
			segPath := filepath.Join(p.tempDir, fmt.Sprintf("s%d.mp4", seg.Index))
			frames := snaps[seg.FirstFrame : seg.FirstFrame+seg.Frames]
			err := p.Encoder.EncodeSegment(gctx, segPath, seg, func(w io.Writer) error {
				return writeFrames(w, canvas, frames)
			})
			if err != nil {
				return fmt.Errorf("сегмент %d (%s): %w", seg.Index, seg.Phase, err)
			}
			results[seg.Index] = segPath
			fmt.Printf("[>] Ready: %d/%d (%s, %d кадров)\n", seg.Index+1, len(segs), seg.Phase, seg.Frames)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	encodeEnd = time.Now()

	fmt.Println("[*] Сборка финального видео...")
	concatStart := time.Now()
	if dir := filepath.Dir(p.Config.OutputVideo); dir != "" {
		os.MkdirAll(dir, 0755)
	}
	final := base
	final.Frames = len(snaps)
	if p.Effect != nil {
		final.Filter = p.Effect.GenerateFilter(final)
	}
	if err := p.Encoder.Concatenate(ctx, results, p.Config.OutputVideo, p.tempDir, final); err != nil {
		return fmt.Errorf("ошибка сборки финального видео: %w", err)
	}

	if p.Config.ShowStats {
		p.report(performance{
			total:    time.Since(startTime),
			simulate: simEnd.Sub(startTime),
			encode:   encodeEnd.Sub(simEnd),
			concat:   time.Since(concatStart),
			frames:   len(snaps),
			segments: len(segs),
			workers:  workers,
			host:     host,
		})
	}
	return nil
}

func writeFrames(w io.Writer, canvas *preview.Canvas, frames []driver.Snapshot) error {
	for _, s := range frames {
		img, err := canvas.Render(s)
		if err != nil {
			return err
		}
		err = video.WriteRawRGBA(w, img)
		canvas.Release(img)
		if err != nil {
			return err
		}
	}
	return nil
}

type performance struct {
	total, simulate, encode, concat time.Duration
	frames, segments, workers       int
	host                            system.HostStats
}

func (p *PreviewProject) report(perf performance) {
	fps := float64(perf.frames) / perf.total.Seconds()
	pool := p.Pool.Stats()

	report := fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Host: %s\n"+
			"Total Time: %.2fs\n"+
			"Simulation: %.2fs\n"+
			"Render+Encode: %.2fs (%d segments, %d workers)\n"+
			"Concatenation: %.2fs\n"+
			"Frame buffers: %d allocated for %d frames\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		p.Config.BuildVersion, perf.host, perf.total.Seconds(), perf.simulate.Seconds(),
		perf.encode.Seconds(), perf.segments, perf.workers, perf.concat.Seconds(),
		pool.Allocs, pool.Gets, fps,
	)
	fmt.Print(report)

	// Логирование в файл
	logEntry := fmt.Sprintf("[%s] Build: %s | Mode: %s | Frames: %d | Total: %.2fs | Encode: %.2fs | FPS: %.2f | CPU: %d\n",
		time.Now().Format("2006-01-02 15:04:05"),
		p.Config.BuildVersion,
		p.Scenario.Name,
		perf.frames,
		perf.total.Seconds(),
		perf.encode.Seconds(),
		fps,
		perf.host.LogicalCPUs,
	)

	f, err := os.OpenFile("benchmark.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		f.WriteString(logEntry)
		f.Close()
	} else {
		fmt.Printf("[!] Не удалось записать benchmark.log: %v\n", err)
	}
}
