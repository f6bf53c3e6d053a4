package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// ImagePool переиспользует кадры *image.RGBA одного размера, чтобы
// покадровый рендер превью не нагружал GC.
type ImagePool struct {
	pools map[image.Point]*sync.Pool
	mu    sync.RWMutex

	gets   atomic.Int64
	allocs atomic.Int64
}

func NewImagePool() *ImagePool {
	return &ImagePool{pools: make(map[image.Point]*sync.Pool)}
}

func (p *ImagePool) pool(size image.Point) *sync.Pool {
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()
	if exists {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double check
	if pool, exists = p.pools[size]; exists {
		return pool
	}
	pool = &sync.Pool{
		New: func() interface{} {
			p.allocs.Add(1)
			return image.NewRGBA(image.Rectangle{Max: size})
		},
	}
	p.pools[size] = pool
	return pool
}

// Get возвращает кадр с нулевым началом координат. Содержимое кадра не
// очищается: вызывающий код обязан перерисовать его целиком.
func (p *ImagePool) Get(w, h int) *image.RGBA {
	p.gets.Add(1)
	return p.pool(image.Pt(w, h)).Get().(*image.RGBA)
}

func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	size := img.Rect.Size()
	p.mu.RLock()
	pool, exists := p.pools[size]
	p.mu.RUnlock()

	if exists {
		pool.Put(img)
	}
}

// PoolStats считает выдачи и реальные аллокации.
type PoolStats struct {
	Gets   int64
	Allocs int64
}

func (p *ImagePool) Stats() PoolStats {
	return PoolStats{Gets: p.gets.Load(), Allocs: p.allocs.Load()}
}
