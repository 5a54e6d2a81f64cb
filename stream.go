package warp

import (
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Stream represents an ordered, asynchronous command queue on a device.
// Work submitted to a stream executes in submission order on a dedicated
// worker goroutine; work on different streams has no implicit ordering.
type Stream struct {
	id    int64
	dev   *Device
	tasks chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	seq    int64 // issue-order position of the next task
	fault  error // first deferred kernel fault, cleared on Synchronize
	closed bool
}

// Event marks a point in a stream's issue order. It is reached once all
// work submitted before it has completed, at which point its timestamp is
// fixed.
type Event struct {
	stream *Stream
	seq    int64
	done   chan struct{}
	at     time.Time
}

// NewStream creates a new execution stream on the device.
func (d *Device) NewStream() *Stream {
	d.mu.Lock()
	d.streamID++
	id := d.streamID
	d.mu.Unlock()

	s := &Stream{
		id:    id,
		dev:   d,
		tasks: make(chan func(), 1024),
		done:  make(chan struct{}),
	}
	go s.worker()
	return s
}

// worker drains tasks in submission order.
func (s *Stream) worker() {
	for task := range s.tasks {
		task()
		s.wg.Done()
	}
	close(s.done)
}

// submit enqueues a task at the stream tail.
func (s *Stream) submit(task func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStreamClosed
	}
	s.seq++
	s.wg.Add(1)
	s.mu.Unlock()

	s.tasks <- task
	return nil
}

// Device returns the device the stream is bound to.
func (s *Stream) Device() *Device { return s.dev }

// Synchronize blocks until all work issued on the stream up to this call
// has completed. If any kernel enqueued since the previous Synchronize
// faulted, the first such fault is returned as a Launch error and cleared,
// mirroring how an asynchronous device reports illegal accesses on a later
// status check rather than at the faulting launch.
func (s *Stream) Synchronize() error {
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.fault
	s.fault = nil
	return err
}

// Close synchronizes the stream and stops its worker. Further submissions
// fail with ErrStreamClosed. A pending fault is logged, since Close
// discards it.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	close(s.tasks)
	<-s.done

	s.mu.Lock()
	if s.fault != nil {
		klog.Errorf("warp: Stream.Close discarding pending fault: %v", s.fault)
		s.fault = nil
	}
	s.mu.Unlock()
}

// noteFault records the first kernel fault observed on the stream.
func (s *Stream) noteFault(err error) {
	s.mu.Lock()
	if s.fault == nil {
		s.fault = err
	}
	s.mu.Unlock()
}

// RecordEvent inserts a timing marker at the stream's current tail
// position. The event is reached, and its timestamp fixed, once all
// previously issued work has completed.
func (s *Stream) RecordEvent() (*Event, error) {
	e := &Event{stream: s, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStreamClosed
	}
	s.seq++
	e.seq = s.seq
	s.wg.Add(1)
	s.mu.Unlock()

	s.tasks <- func() {
		e.at = time.Now()
		close(e.done)
	}
	return e, nil
}

// Reached reports whether the event's point in the stream has completed.
func (e *Event) Reached() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Elapsed returns the wall-clock time between two events recorded on the
// same stream, start no later than end in issue order. If the events have
// not been reached yet, Elapsed blocks until the stream has executed past
// end (an implicit partial synchronization); it does not wait for work
// issued after end.
func Elapsed(start, end *Event) (time.Duration, error) {
	if start.stream != end.stream {
		return 0, newEventOrderError("Elapsed", "events recorded on different streams")
	}
	if start.seq > end.seq {
		return 0, newEventOrderError("Elapsed", "start event recorded after end event")
	}
	<-end.done
	// start precedes end in issue order, so it is reached as well.
	return end.at.Sub(start.at), nil
}
