package effects

import (
	"fmt"
	"math"
	"strings"

	"github.com/ivlev/phasekit/internal/config"
)

// Effect строит ffmpeg-фильтр для всего ролика. Пустая строка - без фильтра.
type Effect interface {
	GenerateFilter(params config.SegmentParams) string
}

// None не меняет видео, склейка идет без перекодирования.
type None struct{}

func (None) GenerateFilter(config.SegmentParams) string { return "" }

// Fade - затемнение в начале и в конце ролика.
type Fade struct {
	Duration float64
}

func (f Fade) GenerateFilter(p config.SegmentParams) string {
	total := p.Duration()
	if f.Duration <= 0 || total <= 0 {
		return ""
	}
	d := math.Min(f.Duration, total/2)
	return fmt.Sprintf("fade=t=in:st=0:d=%.3f,fade=t=out:st=%.3f:d=%.3f", d, total-d, d)
}

// Chain склеивает фильтры нескольких эффектов через запятую.
type Chain []Effect

func (c Chain) GenerateFilter(p config.SegmentParams) string {
	parts := make([]string, 0, len(c))
	for _, e := range c {
		if f := e.GenerateFilter(p); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ",")
}

// FromConfig выбирает эффект по настройкам.
func FromConfig(cfg *config.Config) Effect {
	if cfg.FadeDuration > 0 {
		return Fade{Duration: cfg.FadeDuration}
	}
	return None{}
}
