package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/geo"
)

// Simulated tracking engine: answers commands on <prefix>/command and publishes a
// random walk around a base point with geofence crossings on <prefix>/event/<kind>.

type coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type fixMessage struct {
	UUID      string  `json:"uuid"`
	Timestamp string  `json:"timestamp"`
	Coords    coords  `json:"coords"`
	Sample    bool    `json:"sample"`
	Odometer  float64 `json:"odometer"`
}

type command struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

type reply struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

var base = domain.Coordinate{Latitude: -6.2088, Longitude: 106.8456}

type event struct {
	kind    domain.EventKind
	payload any
}

type simulator struct {
	client mqtt.Client
	prefix string

	mu        sync.Mutex
	enabled   bool
	moving    bool
	odometer  float64
	records   int
	position  domain.Coordinate
	geofences map[string]domain.GeofenceDescriptor
	inside    map[string]bool
	outbox    []event
}

func newSimulator(client mqtt.Client, prefix string) *simulator {
	return &simulator{
		client:    client,
		prefix:    prefix,
		position:  base,
		geofences: map[string]domain.GeofenceDescriptor{},
		inside:    map[string]bool{},
	}
}

func (s *simulator) publish(kind domain.EventKind, payload any) {
	body, _ := json.Marshal(payload)
	topic := fmt.Sprintf("%s/event/%s", s.prefix, kind)
	token := s.client.Publish(topic, 1, false, body)
	token.Wait()
	log.Printf("published to %s: %s", topic, body)
}

func (s *simulator) answer(id string, result any, err error) {
	r := reply{ID: id, OK: err == nil, Result: result}
	if err != nil {
		r.Error = err.Error()
	}
	body, _ := json.Marshal(r)
	// Runs inside the message handler, so the publish token is not awaited.
	s.client.Publish(s.prefix+"/reply", 1, false, body)
}

func (s *simulator) handleCommand(_ mqtt.Client, msg mqtt.Message) {
	var cmd command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		log.Printf("invalid command: %v", err)
		return
	}
	log.Printf("command %s (%s)", cmd.Command, cmd.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Command {
	case "configure":
		s.answer(cmd.ID, s.state(), nil)
		s.announceGeofences()
	case "start", "startSchedule":
		s.enabled = true
		s.answer(cmd.ID, s.state(), nil)
	case "stop":
		s.enabled = false
		s.answer(cmd.ID, s.state(), nil)
	case "getCount":
		s.answer(cmd.ID, s.records, nil)
	case "sync":
		synced := s.records
		s.records = 0
		s.answer(cmd.ID, synced, nil)
		go s.publish(domain.EventHTTP, map[string]any{"status": 200, "responseText": fmt.Sprintf("synced %d", synced)})
	case "destroyLocations":
		s.records = 0
		s.answer(cmd.ID, nil, nil)
	case "setOdometer":
		var args struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(cmd.Args, &args); err != nil {
			s.answer(cmd.ID, nil, err)
			return
		}
		s.odometer = args.Value
		s.answer(cmd.ID, nil, nil)
	case "emailLog":
		s.answer(cmd.ID, nil, nil)
	case "addGeofence":
		var g domain.GeofenceDescriptor
		if err := json.Unmarshal(cmd.Args, &g); err != nil {
			s.answer(cmd.ID, nil, err)
			return
		}
		if err := g.Validate(); err != nil {
			s.answer(cmd.ID, nil, err)
			return
		}
		s.geofences[g.Identifier] = g
		s.answer(cmd.ID, g.Identifier, nil)
	default:
		s.answer(cmd.ID, nil, fmt.Errorf("unsupported command %q", cmd.Command))
	}
}

func (s *simulator) state() domain.EngineState {
	return domain.EngineState{Enabled: s.enabled, Odometer: s.odometer}
}

func (s *simulator) announceGeofences() {
	on := make([]domain.GeofenceDescriptor, 0, len(s.geofences))
	for _, g := range s.geofences {
		on = append(on, g)
	}
	go s.publish(domain.EventGeofencesChange, map[string]any{"on": on, "off": []string{}})
}

// tick publishes one step's events in order. Publishing happens outside the lock so
// the command handler is never stuck behind an unacknowledged publish.
func (s *simulator) tick() {
	for _, e := range s.step() {
		s.publish(e.kind, e.payload)
	}
}

func (s *simulator) step() []event {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walk()
	out := s.outbox
	s.outbox = nil
	return out
}

func (s *simulator) walk() {
	if !s.enabled {
		return
	}

	// 10% chance to stop or start moving
	if rand.Float64() < 0.1 {
		s.moving = !s.moving
		s.emit(domain.EventMotionChange, map[string]any{"isMoving": s.moving, "location": s.fix()})
	}
	if !s.moving {
		s.emit(domain.EventHeartbeat, map[string]any{"location": s.fix()})
		return
	}

	step := 20 + rand.Float64()*60
	next, err := geo.DestinationPoint(s.position, step, rand.Float64()*360)
	if err != nil {
		log.Printf("step: %v", err)
		return
	}
	// drift back toward the base point so the walk stays near the geofences
	if geo.Distance(base, next) > 600 {
		if b, err := geo.BearingDegrees(s.position, base); err == nil {
			next, _ = geo.DestinationPoint(s.position, step, b)
		}
	}
	s.odometer += geo.Distance(s.position, next)
	s.position = next
	s.records++

	f := s.fix()
	s.emit(domain.EventLocation, f)

	for id, g := range s.geofences {
		in := geo.Distance(g.Center(), s.position) <= g.Radius
		if in == s.inside[id] {
			continue
		}
		s.inside[id] = in
		action := "EXIT"
		if in {
			action = "ENTER"
		}
		s.emit(domain.EventGeofence, map[string]any{"identifier": id, "action": action, "location": f})
	}
}

func (s *simulator) emit(kind domain.EventKind, payload any) {
	s.outbox = append(s.outbox, event{kind: kind, payload: payload})
}

func (s *simulator) fix() fixMessage {
	return fixMessage{
		UUID:      uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Coords:    coords{Latitude: s.position.Latitude, Longitude: s.position.Longitude},
		Odometer:  s.odometer,
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}

	intervalSec, err := strconv.Atoi(os.Args[1])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}
	prefix := "tracker"
	if v := os.Getenv("MQTT_TOPIC_PREFIX"); v != "" {
		prefix = v
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("tracker-engine-sim")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("mqtt connect: %v", token.Error())
	}
	defer client.Disconnect(250)

	sim := newSimulator(client, prefix)
	for i, radius := range []float64{150, 250} {
		center, _ := geo.DestinationPoint(base, 300, float64(i)*180)
		id := fmt.Sprintf("zone-%d", i+1)
		sim.geofences[id] = domain.GeofenceDescriptor{
			Identifier:    id,
			Latitude:      center.Latitude,
			Longitude:     center.Longitude,
			Radius:        radius,
			NotifyOnEntry: true,
			NotifyOnExit:  true,
		}
	}

	if token := client.Subscribe(prefix+"/command", 1, sim.handleCommand); token.Wait() && token.Error() != nil {
		log.Fatalf("subscribe: %v", token.Error())
	}

	log.Printf("connected to %s, simulating engine on %s/* every %ds...", broker, prefix, intervalSec)

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		sim.tick()
	}
}
