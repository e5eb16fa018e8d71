package engine

import (
	"context"
	"log"
	"sync"

	"github.com/converselabs/converse-core/core/audio"
)

// playbackQueue serializes playback of synthesized speech chunks: strict
// FIFO, a single active player, automatic advance on completion or per-chunk
// error. A failed chunk is skipped, never allowed to stall the queue.
type playbackQueue struct {
	output audio.Output

	onStarted func()
	onDrained func()

	mu       sync.Mutex
	queue    [][]byte
	playing  bool
	paused   bool
	resumeCh chan struct{}

	ctx context.Context
}

func newPlaybackQueue(output audio.Output) *playbackQueue {
	return &playbackQueue{
		output:   output,
		resumeCh: make(chan struct{}),
		ctx:      context.Background(),
	}
}

func (q *playbackQueue) configure(ctx context.Context, onStarted, onDrained func()) {
	q.mu.Lock()
	q.ctx = ctx
	q.onStarted = onStarted
	q.onDrained = onDrained
	q.mu.Unlock()
}

// Enqueue appends a chunk and starts the player if it is not running.
// Without an output device chunks are dropped, never accumulated.
func (q *playbackQueue) Enqueue(chunk []byte) {
	q.mu.Lock()
	if q.output == nil {
		q.mu.Unlock()
		return
	}
	q.queue = append(q.queue, chunk)
	if q.playing {
		q.mu.Unlock()
		return
	}
	q.playing = true
	onStarted := q.onStarted
	q.mu.Unlock()

	if onStarted != nil {
		onStarted()
	}
	go q.drain()
}

func (q *playbackQueue) drain() {
	for {
		q.mu.Lock()
		if q.paused {
			resume := q.resumeCh
			q.mu.Unlock()
			<-resume
			continue
		}

		if len(q.queue) == 0 {
			q.playing = false
			onDrained := q.onDrained
			q.mu.Unlock()
			if onDrained != nil {
				onDrained()
			}
			return
		}

		chunk := q.queue[0]
		q.queue = q.queue[1:]
		ctx := q.ctx
		q.mu.Unlock()

		if err := q.output.Play(ctx, chunk); err != nil {
			if ctx.Err() != nil {
				continue
			}
			// Recovered locally: one bad chunk must not discard the rest of
			// the response.
			log.Printf("Skipping unplayable audio chunk: %v", err)
		}
	}
}

// IsPlaying reports whether the player goroutine is active.
func (q *playbackQueue) IsPlaying() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playing
}

// Pause holds the queue between chunks. The chunk already handed to the
// output finishes playing.
func (q *playbackQueue) Pause() {
	q.mu.Lock()
	if !q.paused {
		q.paused = true
		q.resumeCh = make(chan struct{})
	}
	q.mu.Unlock()
}

// Resume releases a paused queue.
func (q *playbackQueue) Resume() {
	q.mu.Lock()
	if q.paused {
		q.paused = false
		close(q.resumeCh)
	}
	q.mu.Unlock()
}

// StopAll halts the active chunk, discards the remainder of the queue, and
// releases its resources. Used on cancellation and teardown.
func (q *playbackQueue) StopAll() {
	q.mu.Lock()
	q.queue = nil
	if q.paused {
		q.paused = false
		close(q.resumeCh)
	}
	q.mu.Unlock()

	if q.output != nil {
		q.output.Halt()
	}
}
