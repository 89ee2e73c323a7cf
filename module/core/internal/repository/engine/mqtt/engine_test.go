package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/service"
)

type fakeToken struct {
	err error
}

func (f *fakeToken) Wait() bool                     { return true }
func (f *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (f *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (f *fakeToken) Error() error { return f.err }

type published struct {
	topic   string
	payload []byte
}

type fakeClient struct {
	mu         sync.Mutex
	published  []published
	subscribed   []string
	unsubscribed []string
	publishErr   error
}

func (f *fakeClient) Publish(topic string, _ byte, _ bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{err: f.publishErr}
}

func (f *fakeClient) Subscribe(topic string, _ byte, _ pahomqtt.MessageHandler) pahomqtt.Token {
	f.subscribed = append(f.subscribed, topic)
	return &fakeToken{}
}

func (f *fakeClient) Unsubscribe(topics ...string) pahomqtt.Token {
	f.unsubscribed = append(f.unsubscribed, topics...)
	return &fakeToken{}
}

func (f *fakeClient) last(t *testing.T) commandMessage {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.published) == 0 {
		t.Fatal("expected a published command")
	}
	var cmd commandMessage
	if err := json.Unmarshal(f.published[len(f.published)-1].payload, &cmd); err != nil {
		t.Fatalf("unmarshal command: %v", err)
	}
	return cmd
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 1 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func syncPost(fn func()) { fn() }

func newTestEngine(c *fakeClient) *Engine {
	e := NewEngine(c, "tracker", syncPost, time.Minute)
	n := 0
	e.newID = func() string {
		n++
		return "cmd-" + string(rune('0'+n))
	}
	return e
}

func reply(t *testing.T, e *Engine, r replyMessage) {
	t.Helper()
	payload, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	e.handleReply(nil, &fakeMQTTMessage{topic: "tracker/reply", payload: payload})
}

func TestListen_SubscribesReplyTopic(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)
	if err := e.Listen(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.subscribed) != 1 || c.subscribed[0] != "tracker/reply" {
		t.Fatalf("unexpected subscriptions: %v", c.subscribed)
	}
}

func TestClose_UnsubscribesReplyTopic(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)
	if err := e.Listen(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.unsubscribed) != 1 || c.unsubscribed[0] != "tracker/reply" {
		t.Fatalf("unexpected unsubscriptions: %v", c.unsubscribed)
	}
}

// The lifecycle methods must not collide with the start command.
func TestEngine_SatisfiesServiceEngine(t *testing.T) {
	c := &fakeClient{}
	var eng service.Engine = newTestEngine(c)
	eng.Start(func(domain.EngineState) {}, func(error) {})
	if cmd := c.last(t); cmd.Command != "start" {
		t.Errorf("expected start command, got %q", cmd.Command)
	}
}

func TestConfigure_Success(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)

	var got *domain.EngineState
	e.Configure(domain.EngineOptions{DistanceFilter: 10, Schedule: []string{"1-7 09:00-17:00"}}, func(s domain.EngineState) {
		got = &s
	}, func(err error) {
		t.Fatalf("unexpected failure: %v", err)
	})

	cmd := c.last(t)
	if cmd.Command != "configure" || cmd.ID != "cmd-1" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if c.published[0].topic != "tracker/command" {
		t.Errorf("expected tracker/command, got %s", c.published[0].topic)
	}

	reply(t, e, replyMessage{ID: "cmd-1", OK: true, Result: json.RawMessage(`{"enabled":true,"schedule":["1-7 09:00-17:00"]}`)})

	if got == nil {
		t.Fatal("expected onSuccess to be called")
	}
	if !got.Enabled || len(got.Schedule) != 1 {
		t.Errorf("unexpected state: %+v", got)
	}
	if e.Pending() != 0 {
		t.Errorf("expected no pending commands, got %d", e.Pending())
	}
}

func TestStart_EmptyResultMeansEnabled(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)

	var got *domain.EngineState
	e.Start(func(s domain.EngineState) { got = &s }, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	reply(t, e, replyMessage{ID: "cmd-1", OK: true})

	if got == nil || !got.Enabled {
		t.Fatalf("expected enabled state, got %+v", got)
	}
}

func TestCommand_EngineFailure(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)

	var gotErr error
	e.SetOdometer(0, func() { t.Fatal("onSuccess should not be called") }, func(err error) { gotErr = err })
	reply(t, e, replyMessage{ID: "cmd-1", OK: false, Error: "locked"})

	var cmdErr *CommandError
	if !errors.As(gotErr, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", gotErr)
	}
	if cmdErr.Command != "setOdometer" || cmdErr.Message != "locked" {
		t.Errorf("unexpected error: %+v", cmdErr)
	}
}

func TestGetCount_DecodesResult(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)

	got := -1
	e.GetCount(func(n int) { got = n }, func(err error) { t.Fatalf("unexpected failure: %v", err) })
	reply(t, e, replyMessage{ID: "cmd-1", OK: true, Result: json.RawMessage(`42`)})

	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestGetCount_BadResult(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)

	var gotErr error
	e.GetCount(func(int) { t.Fatal("onSuccess should not be called") }, func(err error) { gotErr = err })
	reply(t, e, replyMessage{ID: "cmd-1", OK: true, Result: json.RawMessage(`"many"`)})

	if gotErr == nil {
		t.Fatal("expected decode error")
	}
}

func TestAddGeofence_SendsDescriptor(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)

	desc := domain.GeofenceDescriptor{Identifier: "HOME", Latitude: 10, Longitude: 10, Radius: 200, NotifyOnEntry: true}
	var gotID string
	e.AddGeofence(desc, func(id string) { gotID = id }, func(err error) { t.Fatalf("unexpected failure: %v", err) })

	var sent struct {
		Command string                    `json:"command"`
		Args    domain.GeofenceDescriptor `json:"args"`
	}
	if err := json.Unmarshal(c.published[0].payload, &sent); err != nil {
		t.Fatal(err)
	}
	if sent.Command != "addGeofence" || sent.Args != desc {
		t.Fatalf("unexpected command: %+v", sent)
	}

	reply(t, e, replyMessage{ID: "cmd-1", OK: true})
	if gotID != "HOME" {
		t.Errorf("expected HOME, got %q", gotID)
	}
}

func TestHandleReply_UnknownID(t *testing.T) {
	c := &fakeClient{}
	e := newTestEngine(c)
	e.Stop(func(domain.EngineState) { t.Fatal("onSuccess should not be called") }, func(error) { t.Fatal("onFailure should not be called") })

	reply(t, e, replyMessage{ID: "other", OK: true})
	if e.Pending() != 1 {
		t.Errorf("expected 1 pending command, got %d", e.Pending())
	}
}

func TestHandleReply_InvalidJSON(t *testing.T) {
	e := newTestEngine(&fakeClient{})
	e.handleReply(nil, &fakeMQTTMessage{topic: "tracker/reply", payload: []byte("invalid")})
}

func TestCommand_Timeout(t *testing.T) {
	c := &fakeClient{}
	e := NewEngine(c, "tracker", syncPost, 10*time.Millisecond)

	errs := make(chan error, 1)
	e.Sync(func(int) { t.Error("onSuccess should not be called") }, func(err error) { errs <- err })

	select {
	case err := <-errs:
		if !errors.Is(err, ErrCommandTimeout) {
			t.Fatalf("expected ErrCommandTimeout, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}
	if e.Pending() != 0 {
		t.Errorf("expected no pending commands, got %d", e.Pending())
	}
}

func TestCommand_PublishError(t *testing.T) {
	c := &fakeClient{publishErr: errors.New("not connected")}
	e := NewEngine(c, "tracker", syncPost, time.Minute)

	errs := make(chan error, 1)
	e.DestroyLocations(func() { t.Error("onSuccess should not be called") }, func(err error) { errs <- err })

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(time.Second):
		t.Fatal("publish failure not reported")
	}
}
