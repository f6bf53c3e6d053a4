package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/assets"
	"github.com/ivlev/phasekit/internal/config"
	"github.com/ivlev/phasekit/internal/driver"
	"github.com/ivlev/phasekit/internal/engine"
	"github.com/ivlev/phasekit/internal/inspect"
	"github.com/ivlev/phasekit/internal/progress"
	"github.com/ivlev/phasekit/internal/system"
	"github.com/ivlev/phasekit/internal/timeline"
	"github.com/ivlev/phasekit/internal/turntable"
	"github.com/ivlev/phasekit/internal/video"
)

var version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, "Использование: phasekit <render|inspect|timeline> [флаги]\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(ctx, os.Args[2:])
	case "inspect":
		err = runInspect(ctx, os.Args[2:])
	case "timeline":
		err = runTimeline(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
}

// deviceFlags регистрирует флаги источников геометрии и таймлайна.
func deviceFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.OuterPath, "outer", "", "STL внешнего корпуса (по умолчанию: самый свежий файл в input/stl/outer/)")
	fs.StringVar(&cfg.InnerPath, "inner", "", "STL внутреннего механизма (по умолчанию: самый свежий файл в input/stl/inner/)")
	fs.BoolVar(&cfg.Procedural, "procedural", false, "Использовать процедурную геометрию вместо STL")
	fs.StringVar(&cfg.TimelinePath, "timeline", "", "YAML таймлайн устройства (по умолчанию: input/timeline/ или встроенный)")
	fs.Float64Var(&cfg.SpacerHeight, "spacer", cfg.SpacerHeight, "Высота спейсера прокрутки, px")
	fs.BoolVar(&cfg.Smooth, "smooth", cfg.Smooth, "Сглаживать прокрутку пружиной")
}

// resolveInputs подставляет самые свежие файлы из input/, если пути не заданы.
func resolveInputs(cfg *config.Config) {
	if cfg.Mode == config.ModeVinyl || cfg.Procedural {
		return
	}
	if cfg.OuterPath == "" {
		if latest, err := system.FindLatestSTL("input/stl/outer"); err == nil {
			cfg.OuterPath = latest
		}
	}
	if cfg.InnerPath == "" {
		if latest, err := system.FindLatestSTL("input/stl/inner"); err == nil {
			cfg.InnerPath = latest
		}
	}
	if cfg.OuterPath == "" || cfg.InnerPath == "" {
		fmt.Println("[*] STL не найдены, используется процедурная геометрия")
		cfg.Procedural = true
	} else {
		fmt.Printf("[*] Модели: %s, %s\n", cfg.OuterPath, cfg.InnerPath)
	}

	if cfg.TimelinePath == "" {
		if latest, err := system.FindLatestTimeline("input/timeline"); err == nil {
			cfg.TimelinePath = latest
			fmt.Printf("[*] Выбран таймлайн: %s\n", cfg.TimelinePath)
		}
	}
}

func runRender(ctx context.Context, args []string) error {
	system.InitResourceLimits()
	for _, d := range []string{"input/stl/outer", "input/stl/inner", "input/timeline", "output"} {
		os.MkdirAll(d, 0755)
	}

	cfg := config.Default()
	cfg.BuildVersion = version
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	deviceFlags(fs, &cfg)
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "Режим: scroll, oscillate, vinyl")
	fs.StringVar(&cfg.OutputVideo, "output", "", "Путь к видео (если пусто, генерируется автоматически в output/)")
	fs.Float64Var(&cfg.TotalDuration, "duration", cfg.TotalDuration, "Длительность ролика (сек)")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Ширина")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Высота")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS")
	fs.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Потоки")
	fs.StringVar(&cfg.Preset, "preset", "", "Пресет формата: 16:9, 9:16, 1:1, 4:3")
	fs.BoolVar(&cfg.HUD, "hud", cfg.HUD, "Выводить фазу и прогресс поверх кадра")
	fs.IntVar(&cfg.QRSize, "qr", 0, "Размер QR-кода с состоянием кадра, px (0 - выключен)")
	fs.Float64Var(&cfg.FadeDuration, "fade", 0, "Затемнение в начале и в конце ролика (сек)")
	fs.StringVar(&cfg.VideoEncoder, "encoder", "auto", "Кодек: auto, libx264, h264_videotoolbox, h264_nvenc")
	fs.IntVar(&cfg.Quality, "quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	fs.BoolVar(&cfg.ShowStats, "stats", false, "Показать отчет о производительности")
	fs.Parse(args)

	if cfg.Preset != "" && !cfg.ApplyPreset() {
		log.Printf("[!] Неизвестный пресет %q, используется %dx%d", cfg.Preset, cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return fmt.Errorf("fps должен быть положительным: %d", cfg.FPS)
	}
	if !system.HasFFmpeg() {
		return fmt.Errorf("ffmpeg не найден в PATH")
	}
	resolveInputs(&cfg)

	if cfg.OutputVideo == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		cfg.OutputVideo = filepath.Join("output", fmt.Sprintf("%s_%s.mp4", cfg.Mode, timestamp))
	}

	if cfg.VideoEncoder == "auto" {
		cfg.VideoEncoder = system.GetBestH264Encoder()
		if cfg.VideoEncoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		switch cfg.VideoEncoder {
		case "h264_videotoolbox":
			cfg.Quality = 75
		case "h264_nvenc":
			cfg.Quality = 28
		default:
			cfg.Quality = 23
		}
	}

	sc, err := engine.NewScenario(ctx, &cfg)
	if err != nil {
		return err
	}
	project := engine.NewPreviewProject(&cfg, sc, &video.FFmpegEncoder{})
	if err := project.Run(ctx); err != nil {
		return fmt.Errorf("ошибка проекта: %w", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", cfg.OutputVideo)
	return nil
}

func runInspect(ctx context.Context, args []string) error {
	cfg := config.Default()
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	deviceFlags(fs, &cfg)
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "Частота обновления")
	step := fs.Float64("step", 0, "Шаг прокрутки на нажатие, px (0 - 1/20 спейсера)")
	noDeck := fs.Bool("no-deck", false, "Не показывать проигрыватель")
	fs.Parse(args)
	resolveInputs(&cfg)

	dev, err := engine.BuildDevice(ctx, &cfg)
	if err != nil {
		return err
	}

	fps := 0
	if cfg.Smooth {
		fps = cfg.FPS
	}
	scroll := progress.NewScroll(cfg.SpacerHeight, fps)
	loop := driver.NewLoop(nil, &driver.AssemblyStage{Name: "device", Assembly: dev.Assembly, Source: scroll})

	var deck *turntable.Deck
	if !*noDeck {
		m, err := turntable.NewModel(turntable.DefaultComponents())
		if err != nil {
			return err
		}
		m.SetProgress(1)
		deck = turntable.NewDeck(m)
		loop.AddStage(&driver.DeckStage{Name: "turntable", Deck: deck})
	}

	model := inspect.New(ctx, loop, scroll, deck, inspect.Options{
		Title:      "phasekit " + version,
		FPS:        cfg.FPS,
		ScrollStep: *step,
	})
	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return err
	}
	return model.Err()
}

func runTimeline(args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ExitOnError)
	validate := fs.String("validate", "", "Проверить YAML таймлайн")
	dump := fs.String("dump", "", "Записать встроенный таймлайн в файл")
	fs.Parse(args)

	switch {
	case *dump != "":
		spec := assembly.DefaultSpec()
		if err := timeline.WriteSpec(&spec, *dump); err != nil {
			return err
		}
		fmt.Printf("[+++] Таймлайн записан: %s\n", *dump)
		return nil

	case *validate != "":
		spec, err := timeline.ReadSpec(*validate)
		if err != nil {
			return err
		}
		g, err := assets.LoadDevice(context.Background(), assets.ProceduralOuter, assets.ProceduralInner)
		if err != nil {
			return err
		}
		rig, err := assembly.NewRig(g)
		if err != nil {
			return err
		}
		table, err := rig.NewTable(*spec)
		if err != nil {
			return err
		}
		fmt.Printf("[+++] Таймлайн %q корректен: %d фаз\n", spec.Name, table.Len())
		for _, p := range table.Phases() {
			fmt.Printf("    %-12s [%.3f, %.3f)\n", p.Name, p.Start, p.End)
		}
		return nil
	}

	fmt.Fprintln(os.Stderr, "Укажите -validate или -dump")
	fmt.Fprintln(os.Stderr, strings.TrimSpace(`
Примеры:
  phasekit timeline -dump input/timeline/device.yaml
  phasekit timeline -validate input/timeline/device.yaml`))
	os.Exit(2)
	return nil
}
