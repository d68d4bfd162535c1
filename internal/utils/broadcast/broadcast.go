package broadcast

import "sync"

const defaultBuffer = 8

// Hub рассылает значения всем подписчикам. Publish не блокируется:
// если буфер подписчика заполнен, самое старое значение вытесняется.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	buffer int
}

// Subscription - подписка на Hub. Закрывается через Close.
type Subscription[T any] struct {
	hub *Hub[T]
	ch  chan T
}

func New[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		buffer: buffer,
	}
}

func (h *Hub[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{hub: h, ch: make(chan T, h.buffer)}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	return s
}

func (h *Hub[T]) Publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.ch <- v:
			continue
		default:
		}
		// буфер полон: выбрасываем старое значение
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- v:
		default:
		}
	}
}

// Len возвращает число активных подписчиков.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close отписывает и закрывает канал. Повторный вызов безопасен.
func (s *Subscription[T]) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if _, ok := s.hub.subs[s]; !ok {
		return
	}
	delete(s.hub.subs, s)
	close(s.ch)
}
