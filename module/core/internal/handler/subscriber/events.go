package subscriber

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nandanugg/geofence-map/module/core/domain"
	"github.com/nandanugg/geofence-map/module/core/service"
	"github.com/nandanugg/geofence-map/observability"
)

type eventStore interface {
	Apply(ev domain.Event) service.Result
}

type coordsMessage struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type fixMessage struct {
	UUID      string        `json:"uuid"`
	Timestamp string        `json:"timestamp"`
	Coords    coordsMessage `json:"coords"`
	Sample    bool          `json:"sample"`
	Odometer  float64       `json:"odometer"`
}

type geofenceMessage struct {
	Identifier string     `json:"identifier"`
	Action     string     `json:"action"`
	Location   fixMessage `json:"location"`
}

type geofencesChangeMessage struct {
	On  []domain.GeofenceDescriptor `json:"on"`
	Off []string                    `json:"off"`
}

type motionChangeMessage struct {
	IsMoving bool       `json:"isMoving"`
	Location fixMessage `json:"location"`
}

type heartbeatMessage struct {
	Location fixMessage `json:"location"`
}

type scheduleMessage struct {
	Enabled bool `json:"enabled"`
}

type httpMessage struct {
	Status       int    `json:"status"`
	ResponseText string `json:"responseText"`
}

type errorMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EngineSubscriber feeds the engine's event stream into the store. Messages are decoded
// on the MQTT goroutine and applied on the loop, in delivery order.
type EngineSubscriber struct {
	client mqtt.Client
	prefix string
	post   func(func())
	store  eventStore
	newID  func() string
}

func NewEngineSubscriber(client mqtt.Client, prefix string, post func(func()), store eventStore) *EngineSubscriber {
	return &EngineSubscriber{
		client: client,
		prefix: prefix,
		post:   post,
		store:  store,
		newID:  uuid.NewString,
	}
}

func (s *EngineSubscriber) Start() error {
	token := s.client.Subscribe(s.prefix+"/event/+", 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

// Stop unsubscribes from the event topics.
func (s *EngineSubscriber) Stop() error {
	token := s.client.Unsubscribe(s.prefix + "/event/+")
	token.Wait()
	return token.Error()
}

func (s *EngineSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	kind := domain.EventKind(msg.Topic()[strings.LastIndex(msg.Topic(), "/")+1:])

	ev, err := s.decode(kind, msg.Payload())
	if err != nil {
		observability.EventsRejected.WithLabelValues(string(kind)).Inc()
		log.Printf("invalid %s message: %v", kind, err)
		return
	}

	s.post(func() { s.store.Apply(ev) })
}

func (s *EngineSubscriber) decode(kind domain.EventKind, payload []byte) (domain.Event, error) {
	switch kind {
	case domain.EventLocation:
		var raw fixMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		fix, err := s.toFix(&raw)
		if err != nil {
			return nil, err
		}
		return domain.LocationEvent{Fix: fix}, nil

	case domain.EventGeofence:
		var raw geofenceMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		if raw.Identifier == "" {
			return nil, fmt.Errorf("identifier: required")
		}
		if raw.Action == "" {
			return nil, fmt.Errorf("action: required")
		}
		fix, err := s.toFix(&raw.Location)
		if err != nil {
			return nil, fmt.Errorf("location: %w", err)
		}
		return domain.GeofenceCrossingEvent{Identifier: raw.Identifier, Action: strings.ToUpper(raw.Action), Location: fix}, nil

	case domain.EventGeofencesChange:
		var raw geofencesChangeMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		for _, id := range raw.Off {
			if id == "" {
				return nil, fmt.Errorf("off: empty identifier")
			}
		}
		return domain.GeofencesChangeEvent{On: raw.On, Off: raw.Off}, nil

	case domain.EventMotionChange:
		var raw motionChangeMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		ev := domain.MotionChangeEvent{IsMoving: raw.IsMoving}
		if !raw.IsMoving {
			fix, err := s.toFix(&raw.Location)
			if err != nil {
				return nil, fmt.Errorf("location: %w", err)
			}
			ev.Location = fix
		}
		return ev, nil

	case domain.EventHeartbeat:
		var raw heartbeatMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return domain.HeartbeatEvent{Location: fixFromMessage(&raw.Location)}, nil

	case domain.EventSchedule:
		var raw scheduleMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return domain.ScheduleEvent{Enabled: raw.Enabled}, nil

	case domain.EventHTTP:
		var raw httpMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return domain.HTTPEvent{Status: raw.Status, ResponseText: raw.ResponseText}, nil

	case domain.EventError:
		var raw errorMessage
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, err
		}
		return domain.ErrorEvent{Message: fmt.Sprintf("%d %s", raw.Code, raw.Message)}, nil
	}
	return nil, fmt.Errorf("unknown event kind %q", kind)
}

// toFix validates a fix and assigns an id when the engine did not send one.
func (s *EngineSubscriber) toFix(raw *fixMessage) (domain.Fix, error) {
	if err := validateFixMessage(raw); err != nil {
		return domain.Fix{}, err
	}
	fix := fixFromMessage(raw)
	if fix.UUID == "" {
		fix.UUID = s.newID()
	}
	return fix, nil
}

func fixFromMessage(raw *fixMessage) domain.Fix {
	return domain.Fix{
		UUID:      raw.UUID,
		Timestamp: raw.Timestamp,
		Coords:    domain.Coordinate{Latitude: raw.Coords.Latitude, Longitude: raw.Coords.Longitude},
		Sample:    raw.Sample,
		Odometer:  raw.Odometer,
	}
}

func validateFixMessage(msg *fixMessage) error {
	if msg.Timestamp == "" {
		return fmt.Errorf("timestamp: required")
	}
	if msg.Coords.Latitude < -90 || msg.Coords.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if msg.Coords.Longitude < -180 || msg.Coords.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	return nil
}
