package analyzer

import (
	"image"
	"sync"
)

// grayPool recycles origin-anchored *image.Gray buffers per size so the
// ruling strategy does not allocate full-frame masks on every call.
type grayPool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

func newGrayPool() *grayPool {
	return &grayPool{pools: make(map[image.Rectangle]*sync.Pool)}
}

// get returns a buffer covering rect. Its pixels are not cleared; callers
// overwrite every pixel.
func (p *grayPool) get(rect image.Rectangle) *image.Gray {
	p.mu.RLock()
	pool, exists := p.pools[rect]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[rect]
		if !exists {
			pool = &sync.Pool{
				New: func() any {
					return image.NewGray(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*image.Gray)
}

func (p *grayPool) put(imgs ...*image.Gray) {
	for _, img := range imgs {
		if img == nil {
			continue
		}
		p.mu.RLock()
		pool, exists := p.pools[img.Rect]
		p.mu.RUnlock()

		if exists {
			pool.Put(img)
		}
	}
}
