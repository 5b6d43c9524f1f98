package describe

import (
	"context"
	"sync"
	"time"

	"github.com/livefeedai/livefeed/internal/logger"
	"github.com/livefeedai/livefeed/internal/mailbox"
)

// Description is one completed analysis of an emitted frame.
type Description struct {
	Text      string    `json:"text"`
	Error     string    `json:"error,omitempty"`
	CacheHit  bool      `json:"cache_hit"`
	ElapsedMS int64     `json:"elapsed_ms"`
	At        time.Time `json:"at"`
}

// NotifyFunc receives each completed Description.
type NotifyFunc func(Description)

// Worker drains the frame mailbox: encode, consult the cache, upload to the
// inference server, and notify listeners with the result. One worker per
// mailbox; uploads never block the capture side, the mailbox absorbs overflow
// by dropping stale frames.
type Worker struct {
	box    *mailbox.Mailbox
	client *Client
	cache  *Cache
	notify NotifyFunc
	wg     sync.WaitGroup

	mu   sync.RWMutex
	last Description
}

// NewWorker wires a worker to its mailbox, client and cache. notify may be
// nil.
func NewWorker(box *mailbox.Mailbox, client *Client, cache *Cache, notify NotifyFunc) *Worker {
	return &Worker{
		box:    box,
		client: client,
		cache:  cache,
		notify: notify,
	}
}

// Start launches the worker goroutine
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()
}

// Stop closes the mailbox and waits for the in-flight frame, if any, to
// finish. That last description is simply the final observation consumers
// receive.
func (w *Worker) Stop() {
	w.box.Close()
	w.wg.Wait()
}

// Last returns the most recent description, possibly the zero value.
func (w *Worker) Last() Description {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

func (w *Worker) loop() {
	log := logger.WithComponent("describe-worker")

	for {
		frame := w.box.Receive()
		if frame == nil {
			return
		}

		start := time.Now()
		jpegData, err := EncodeFrame(frame.Image)
		if err != nil {
			log.Error().Err(err).Msg("Frame encode failed")
			w.publish(Description{Error: err.Error(), At: frame.At})
			continue
		}

		if text, ok := w.cache.Get(jpegData); ok {
			log.Debug().Msg("Using cached description")
			w.publish(Description{
				Text:      text,
				CacheHit:  true,
				ElapsedMS: time.Since(start).Milliseconds(),
				At:        frame.At,
			})
			continue
		}

		text, err := w.client.Describe(context.Background(), jpegData)
		if err != nil {
			log.Error().Err(err).Msg("Description request failed")
			w.publish(Description{Error: err.Error(), At: frame.At})
			continue
		}

		w.cache.Add(jpegData, text)
		elapsed := time.Since(start)
		log.Info().
			Dur("elapsed", elapsed).
			Int("bytes", len(jpegData)).
			Msg("Frame described")

		w.publish(Description{
			Text:      text,
			ElapsedMS: elapsed.Milliseconds(),
			At:        frame.At,
		})
	}
}

func (w *Worker) publish(d Description) {
	w.mu.Lock()
	w.last = d
	w.mu.Unlock()
	if w.notify != nil {
		w.notify(d)
	}
}
