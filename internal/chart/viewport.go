package chart

import "sync"

// Viewport is an in-memory Container with a settable size. It implements
// ResizeObservable; observers run on the goroutine that calls Resize.
type Viewport struct {
	mu        sync.Mutex
	width     int
	height    int
	observers map[int]func()
	nextID    int
}

func NewViewport(width, height int) *Viewport {
	return &Viewport{width: width, height: height, observers: make(map[int]func())}
}

func (v *Viewport) Size() (int, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

// Resize changes the size and notifies observers when it actually changed.
func (v *Viewport) Resize(width, height int) {
	v.mu.Lock()
	if v.width == width && v.height == height {
		v.mu.Unlock()
		return
	}
	v.width, v.height = width, height
	fns := make([]func(), 0, len(v.observers))
	for _, fn := range v.observers {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (v *Viewport) ObserveResize(fn func()) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.observers[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.observers, id)
			v.mu.Unlock()
		})
	}
}

// Observers returns the number of attached observers.
func (v *Viewport) Observers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.observers)
}
