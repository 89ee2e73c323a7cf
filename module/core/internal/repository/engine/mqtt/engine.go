// Package mqtt drives the tracking engine's command interface over MQTT. Each command
// is published with a correlation id; the engine answers on the reply topic.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/service"
)

var _ service.Engine = (*Engine)(nil)

var ErrCommandTimeout = errors.New("engine command timed out")

// CommandError is a failure reported by the engine itself.
type CommandError struct {
	Command string
	Message string
}

func (e *CommandError) Error() string {
	return e.Command + ": " + e.Message
}

type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
}

type commandMessage struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Args    any    `json:"args,omitempty"`
}

type replyMessage struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Result json.RawMessage `json:"result"`
}

type pendingCall struct {
	command   string
	onSuccess func(json.RawMessage)
	onFailure func(error)
	timer     *time.Timer
}

type Engine struct {
	client  client
	prefix  string
	post    func(func())
	timeout time.Duration
	newID   func() string

	mu      sync.Mutex
	pending map[string]*pendingCall
}

func NewEngine(c client, prefix string, post func(func()), timeout time.Duration) *Engine {
	return &Engine{
		client:  c,
		prefix:  prefix,
		post:    post,
		timeout: timeout,
		newID:   uuid.NewString,
		pending: map[string]*pendingCall{},
	}
}

func (e *Engine) commandTopic() string { return e.prefix + "/command" }
func (e *Engine) replyTopic() string   { return e.prefix + "/reply" }

// Listen subscribes to the reply topic. It must be called before any command is sent.
func (e *Engine) Listen() error {
	token := e.client.Subscribe(e.replyTopic(), 1, e.handleReply)
	token.Wait()
	return token.Error()
}

// Close unsubscribes from the reply topic. Commands still pending fail by timeout.
func (e *Engine) Close() error {
	token := e.client.Unsubscribe(e.replyTopic())
	token.Wait()
	return token.Error()
}

func (e *Engine) send(command string, args any, onSuccess func(json.RawMessage), onFailure func(error)) {
	id := e.newID()
	body, err := json.Marshal(commandMessage{ID: id, Command: command, Args: args})
	if err != nil {
		e.post(func() { onFailure(fmt.Errorf("encode %s: %w", command, err)) })
		return
	}

	call := &pendingCall{command: command, onSuccess: onSuccess, onFailure: onFailure}
	e.mu.Lock()
	e.pending[id] = call
	call.timer = time.AfterFunc(e.timeout, func() {
		e.fail(id, fmt.Errorf("%w: %s", ErrCommandTimeout, command))
	})
	e.mu.Unlock()

	token := e.client.Publish(e.commandTopic(), 1, false, body)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			e.fail(id, fmt.Errorf("publish %s: %w", command, err))
		}
	}()
}

// take removes and returns the pending call, or nil if it already completed.
func (e *Engine) take(id string) *pendingCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	call, ok := e.pending[id]
	if !ok {
		return nil
	}
	delete(e.pending, id)
	if call.timer != nil {
		call.timer.Stop()
	}
	return call
}

func (e *Engine) fail(id string, err error) {
	call := e.take(id)
	if call == nil {
		return
	}
	e.post(func() { call.onFailure(err) })
}

func (e *Engine) handleReply(_ pahomqtt.Client, msg pahomqtt.Message) {
	var reply replyMessage
	if err := json.Unmarshal(msg.Payload(), &reply); err != nil {
		log.Printf("invalid engine reply: %v", err)
		return
	}

	call := e.take(reply.ID)
	if call == nil {
		log.Printf("engine reply %s: no pending command", reply.ID)
		return
	}

	if !reply.OK {
		err := &CommandError{Command: call.command, Message: reply.Error}
		e.post(func() { call.onFailure(err) })
		return
	}
	e.post(func() { call.onSuccess(reply.Result) })
}

// Pending reports how many commands are awaiting a reply.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

func (e *Engine) Configure(opts domain.EngineOptions, onSuccess func(domain.EngineState), onFailure func(error)) {
	e.send("configure", opts, stateResult("configure", false, onSuccess, onFailure), onFailure)
}

func (e *Engine) Start(onSuccess func(domain.EngineState), onFailure func(error)) {
	e.send("start", nil, stateResult("start", true, onSuccess, onFailure), onFailure)
}

func (e *Engine) Stop(onSuccess func(domain.EngineState), onFailure func(error)) {
	e.send("stop", nil, stateResult("stop", false, onSuccess, onFailure), onFailure)
}

func (e *Engine) StartSchedule(onSuccess func(domain.EngineState), onFailure func(error)) {
	e.send("startSchedule", nil, stateResult("startSchedule", true, onSuccess, onFailure), onFailure)
}

func (e *Engine) GetCount(onSuccess func(int), onFailure func(error)) {
	e.send("getCount", nil, func(raw json.RawMessage) {
		var count int
		if err := json.Unmarshal(raw, &count); err != nil {
			onFailure(fmt.Errorf("decode getCount result: %w", err))
			return
		}
		onSuccess(count)
	}, onFailure)
}

func (e *Engine) Sync(onSuccess func(int), onFailure func(error)) {
	e.send("sync", nil, func(raw json.RawMessage) {
		var synced int
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &synced); err != nil {
				log.Printf("decode sync result: %v", err)
			}
		}
		onSuccess(synced)
	}, onFailure)
}

func (e *Engine) DestroyLocations(onSuccess func(), onFailure func(error)) {
	e.send("destroyLocations", nil, func(json.RawMessage) { onSuccess() }, onFailure)
}

func (e *Engine) SetOdometer(value float64, onSuccess func(), onFailure func(error)) {
	e.send("setOdometer", map[string]float64{"value": value}, func(json.RawMessage) { onSuccess() }, onFailure)
}

func (e *Engine) EmailLog(address string) {
	e.send("emailLog", map[string]string{"email": address}, func(json.RawMessage) {
		log.Printf("emailLog sent to %s", address)
	}, func(err error) {
		log.Printf("emailLog error: %v", err)
	})
}

func (e *Engine) AddGeofence(geofence domain.GeofenceDescriptor, onSuccess func(identifier string), onFailure func(error)) {
	e.send("addGeofence", geofence, func(raw json.RawMessage) {
		identifier := geofence.Identifier
		if len(raw) > 0 {
			var reported string
			if err := json.Unmarshal(raw, &reported); err == nil && reported != "" {
				identifier = reported
			}
		}
		onSuccess(identifier)
	}, onFailure)
}

// stateResult decodes an EngineState reply. An empty result means the command took
// effect, so enabled falls back to what the command implies.
func stateResult(command string, enabled bool, onSuccess func(domain.EngineState), onFailure func(error)) func(json.RawMessage) {
	return func(raw json.RawMessage) {
		state := domain.EngineState{Enabled: enabled}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &state); err != nil {
				onFailure(fmt.Errorf("decode %s result: %w", command, err))
				return
			}
		}
		onSuccess(state)
	}
}
