package engine

import (
	"context"
	"fmt"

	"github.com/ivlev/phasekit/internal/assembly"
	"github.com/ivlev/phasekit/internal/assets"
	"github.com/ivlev/phasekit/internal/config"
	"github.com/ivlev/phasekit/internal/timeline"
)

// LoadSpec читает таймлайн устройства из файла или возвращает встроенный.
func LoadSpec(path string) (timeline.Spec, error) {
	if path == "" {
		return assembly.DefaultSpec(), nil
	}
	spec, err := timeline.ReadSpec(path)
	if err != nil {
		return timeline.Spec{}, fmt.Errorf("ошибка чтения таймлайна: %w", err)
	}
	return *spec, nil
}

// DeviceSources выбирает источники геометрии: STL-файлы или процедурные
// коробки, если задан -procedural или файлы не указаны.
func DeviceSources(cfg *config.Config) (outer, inner assets.Source) {
	if cfg.Procedural || cfg.OuterPath == "" || cfg.InnerPath == "" {
		return assets.ProceduralOuter, assets.ProceduralInner
	}
	return assets.STLFile{Path: cfg.OuterPath}, assets.STLFile{Path: cfg.InnerPath}
}

// Device - загруженное устройство вместе с исходной геометрией.
type Device struct {
	Assembly *assembly.Assembly
	Geometry assembly.Geometry
}

// BuildDevice загружает геометрию и строит таблицу фаз. При ошибке
// загрузки сборка остается без анимации, а ошибка возвращается вызывающему.
func BuildDevice(ctx context.Context, cfg *config.Config) (*Device, error) {
	spec, err := LoadSpec(cfg.TimelinePath)
	if err != nil {
		return nil, err
	}
	a := assembly.New(spec)

	outer, inner := DeviceSources(cfg)
	g, err := assets.LoadDevice(ctx, outer, inner)
	if err != nil {
		a.OnError(err)
		return nil, err
	}
	if err := a.OnLoaded(g); err != nil {
		return nil, err
	}
	return &Device{Assembly: a, Geometry: g}, nil
}
