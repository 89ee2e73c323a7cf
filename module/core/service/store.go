package service

import (
	"errors"
	"log"
	"sync"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/observability"
)

// Notification tells observers that the snapshot changed. Snapshot must be treated as
// read-only.
type Notification struct {
	Seq      uint64
	Kind     domain.EventKind
	Snapshot domain.ViewModel
}

// Store owns the current view-model snapshot. Apply is called from the loop only;
// Snapshot may be called from any goroutine.
type Store struct {
	reconciler *Reconciler

	mu  sync.RWMutex
	vm  domain.ViewModel
	seq uint64

	subsMu  sync.Mutex
	subs    map[uint64]chan Notification
	nextSub uint64
}

func NewStore(reconciler *Reconciler) *Store {
	return &Store{
		reconciler: reconciler,
		vm:         domain.NewViewModel(),
		subs:       map[uint64]chan Notification{},
	}
}

func (s *Store) Snapshot() domain.ViewModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vm
}

// Seq increments once per applied event that changed the snapshot.
func (s *Store) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func (s *Store) Apply(ev domain.Event) Result {
	if ev == nil {
		return Result{Err: ErrUnhandledEvent}
	}
	kind := ev.Kind()

	s.mu.Lock()
	next, res := s.reconciler.Reduce(s.vm, ev)
	if res.Changed {
		s.vm = next
		s.seq++
	}
	seq := s.seq
	s.mu.Unlock()

	observability.EventsApplied.WithLabelValues(string(kind)).Inc()
	logEvent(ev, res)

	if res.Changed {
		s.publish(Notification{Seq: seq, Kind: kind, Snapshot: next})
	}
	return res
}

// Subscribe registers an observer. Notifications that do not fit in the buffer are
// dropped rather than stalling Apply. The returned func unsubscribes and closes the
// channel; calling it more than once is safe.
func (s *Store) Subscribe(buffer int) (<-chan Notification, func()) {
	ch := make(chan Notification, buffer)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) publish(n Notification) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for id, ch := range s.subs {
		select {
		case ch <- n:
		default:
			observability.NotificationsDropped.Inc()
			log.Printf("subscriber %d: %v, dropped notification %d", id, ErrNotificationBuffer, n.Seq)
		}
	}
}

func logEvent(ev domain.Event, res Result) {
	switch e := ev.(type) {
	case domain.HeartbeatEvent:
		log.Printf("heartbeat: %+v", e.Location.Coords)
	case domain.HTTPEvent:
		log.Printf("http %d: %s", e.Status, e.ResponseText)
	case domain.ErrorEvent:
		log.Printf("engine error: %s", e.Message)
	}

	if res.Err == nil {
		return
	}
	switch {
	case errors.Is(res.Err, ErrUnknownGeofence):
		observability.EventsIgnored.WithLabelValues("unknown_geofence").Inc()
	case errors.Is(res.Err, ErrDuplicateCrossing):
		observability.EventsIgnored.WithLabelValues("duplicate_crossing").Inc()
	case errors.Is(res.Err, ErrUnsupportedAction):
		observability.EventsIgnored.WithLabelValues("unsupported_action").Inc()
	default:
		observability.EventsIgnored.WithLabelValues("other").Inc()
	}
	log.Printf("%s ignored: %v", ev.Kind(), res.Err)
}
