package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
	"github.com/debranko/obedio-yacht-crew-management-sub004/pkg/mqtt"
)

// ── fakes ──

type published struct {
	topic string
	v     any
}

type fakeBroker struct {
	mu           sync.Mutex
	handlers     map[string]mqtt.Handler
	out          []published
	unsubscribed []string
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]mqtt.Handler)}
}

func (b *fakeBroker) Subscribe(topic string, h mqtt.Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = h
	return nil
}

// Unsubscribe keeps the handlers so tests can replay messages the client
// had already queued.
func (b *fakeBroker) Unsubscribe(topics ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribed = append(b.unsubscribed, topics...)
	return nil
}

func (b *fakeBroker) PublishJSON(_ context.Context, topic string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out = append(b.out, published{topic: topic, v: v})
	return nil
}

func (b *fakeBroker) deliver(pattern, topic, payload string) {
	b.mu.Lock()
	h := b.handlers[pattern]
	b.mu.Unlock()
	h(topic, []byte(payload))
}

type fakeRequests struct {
	service.RequestService

	created     []dto.TriggerRequest
	createErr   error
	transitions []string
	transErr    error

	// when set, Create signals entered and waits on release
	entered chan struct{}
	release chan struct{}
}

func (f *fakeRequests) Create(_ context.Context, req *dto.TriggerRequest) (*dto.ServiceRequestResponse, error) {
	if f.release != nil {
		close(f.entered)
		<-f.release
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, *req)
	return &dto.ServiceRequestResponse{ID: "req-1", Status: "pending"}, nil
}

func (f *fakeRequests) Transition(_ context.Context, id, status, crewID string) (*dto.ServiceRequestResponse, error) {
	f.transitions = append(f.transitions, id+":"+status+":"+crewID)
	if f.transErr != nil {
		return nil, f.transErr
	}
	return &dto.ServiceRequestResponse{ID: id, Status: status}, nil
}

type fakeDevices struct {
	service.DeviceService

	known      map[string]string // key -> bound crew id
	registered []dto.RegisterDeviceRequest
	heartbeats []string
	events     []string
	telemetry  []string
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{known: make(map[string]string)}
}

func (f *fakeDevices) Register(_ context.Context, req *dto.RegisterDeviceRequest) (*dto.DeviceResponse, bool, error) {
	f.registered = append(f.registered, *req)
	_, existed := f.known[req.DeviceKey]
	if !existed {
		f.known[req.DeviceKey] = ""
	}
	return &dto.DeviceResponse{ID: "dev-" + req.DeviceKey, DeviceKey: req.DeviceKey}, !existed, nil
}

func (f *fakeDevices) Heartbeat(_ context.Context, req *dto.HeartbeatRequest) error {
	if _, ok := f.known[req.DeviceKey]; !ok {
		return service.ErrDeviceNotFound
	}
	f.heartbeats = append(f.heartbeats, req.DeviceKey)
	return nil
}

func (f *fakeDevices) RecordTelemetry(_ context.Context, key string, _ *dto.TelemetryRequest) error {
	if _, ok := f.known[key]; !ok {
		return service.ErrDeviceNotFound
	}
	f.telemetry = append(f.telemetry, key)
	return nil
}

func (f *fakeDevices) LogEvent(_ context.Context, key, eventType string, _ any) error {
	f.events = append(f.events, key+":"+eventType)
	return nil
}

func (f *fakeDevices) FindCrewByDeviceKey(_ context.Context, key string) (string, error) {
	crew, ok := f.known[key]
	if !ok {
		return "", service.ErrDeviceNotFound
	}
	return crew, nil
}

func setupSubscriber(t *testing.T) (*fakeBroker, *fakeRequests, *fakeDevices) {
	t.Helper()
	broker := newFakeBroker()
	reqs := &fakeRequests{}
	devs := newFakeDevices()
	sub := NewSubscriber(broker, reqs, devs, zap.NewNop())
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("start should succeed: %v", err)
	}
	return broker, reqs, devs
}

// ── DeriveRequest ──

func TestDeriveRequest(t *testing.T) {
	tests := []struct {
		button, press string
		wantType      model.RequestType
		wantPriority  model.Priority
	}{
		{"main", "single", model.RequestService, model.PriorityNormal},
		{"", "", model.RequestService, model.PriorityNormal},
		{"main", "double", model.RequestService, model.PriorityUrgent},
		{"main", "long", model.RequestVoice, model.PriorityNormal},
		{"aux3", "long", model.RequestVoice, model.PriorityNormal},
		{"main", "shake", model.RequestEmergency, model.PriorityEmergency},
		{"aux2", "shake", model.RequestEmergency, model.PriorityEmergency},
		{"aux1", "single", model.RequestDND, model.PriorityNormal},
		{"aux2", "single", model.RequestLights, model.PriorityNormal},
		{"aux3", "double", model.RequestPrepareFood, model.PriorityNormal},
		{"aux4", "single", model.RequestBringDrinks, model.PriorityNormal},
	}
	for _, tt := range tests {
		gotType, gotPriority := DeriveRequest(tt.button, tt.press)
		if gotType != tt.wantType || gotPriority != tt.wantPriority {
			t.Errorf("DeriveRequest(%q, %q) = %s/%s, expected %s/%s",
				tt.button, tt.press, gotType, gotPriority, tt.wantType, tt.wantPriority)
		}
	}
}

// ── button press ──

func TestButtonPress_CreatesRequestAndAcks(t *testing.T) {
	broker, reqs, devs := setupSubscriber(t)
	devs.known["BTN-001"] = ""

	broker.deliver(mqtt.TopicButtonPress, "obedio/button/BTN-001/press",
		`{"button":"main","pressType":"double","battery":87,"locationId":"master-bedroom"}`)

	if len(reqs.created) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs.created))
	}
	got := reqs.created[0]
	if got.ButtonID != "BTN-001" || got.LocationID != "master-bedroom" {
		t.Errorf("unexpected trigger %+v", got)
	}
	if got.RequestType != "service" || got.Priority != "urgent" {
		t.Errorf("expected service/urgent, got %s/%s", got.RequestType, got.Priority)
	}
	if len(devs.heartbeats) != 1 {
		t.Errorf("press should refresh liveness")
	}

	if len(broker.out) != 1 || broker.out[0].topic != "obedio/device/BTN-001/command" {
		t.Fatalf("expected ack on command topic, got %+v", broker.out)
	}
	ack, ok := broker.out[0].v.(Command)
	if !ok || ack.Command != "ack" || ack.RequestID != "req-1" {
		t.Errorf("unexpected ack %+v", broker.out[0].v)
	}
}

func TestButtonPress_UnknownButtonIsRegistered(t *testing.T) {
	broker, reqs, devs := setupSubscriber(t)

	broker.deliver(mqtt.TopicButtonPress, "obedio/button/BTN-NEW/press", `{"button":"main"}`)

	if len(devs.registered) != 1 || devs.registered[0].Type != "smart_button" {
		t.Fatalf("unknown button should be registered as smart_button, got %+v", devs.registered)
	}
	if len(reqs.created) != 1 {
		t.Errorf("request should still be created")
	}
}

func TestButtonPress_DuplicateInFlightIsSilent(t *testing.T) {
	broker, reqs, devs := setupSubscriber(t)
	devs.known["BTN-001"] = ""
	reqs.createErr = service.ErrDuplicateTrigger

	broker.deliver(mqtt.TopicButtonPress, "obedio/button/BTN-001/press", `{}`)

	if len(broker.out) != 0 {
		t.Errorf("duplicate press should not be acked, got %+v", broker.out)
	}
}

func TestSubscriber_StopDropsLateMessages(t *testing.T) {
	broker := newFakeBroker()
	reqs := &fakeRequests{}
	devs := newFakeDevices()
	devs.known["BTN-001"] = ""
	sub := NewSubscriber(broker, reqs, devs, zap.NewNop())
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("start should succeed: %v", err)
	}

	sub.Stop()

	if len(broker.unsubscribed) != 5 {
		t.Errorf("expected every topic unsubscribed, got %v", broker.unsubscribed)
	}
	broker.deliver(mqtt.TopicButtonPress, "obedio/button/BTN-001/press", `{"button":"main"}`)
	if len(reqs.created) != 0 {
		t.Errorf("expected press after stop to be dropped, got %d requests", len(reqs.created))
	}
}

func TestSubscriber_StopWaitsForRunningHandlers(t *testing.T) {
	broker := newFakeBroker()
	reqs := &fakeRequests{entered: make(chan struct{}), release: make(chan struct{})}
	devs := newFakeDevices()
	devs.known["BTN-001"] = ""
	sub := NewSubscriber(broker, reqs, devs, zap.NewNop())
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("start should succeed: %v", err)
	}

	go broker.deliver(mqtt.TopicButtonPress, "obedio/button/BTN-001/press", `{"button":"main"}`)
	<-reqs.entered

	stopped := make(chan struct{})
	go func() {
		sub.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a handler was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(reqs.release)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the handler finished")
	}
	if len(reqs.created) != 1 {
		t.Errorf("expected the running press to complete, got %d", len(reqs.created))
	}
}

func TestButtonPress_MalformedPayload(t *testing.T) {
	broker, reqs, _ := setupSubscriber(t)

	broker.deliver(mqtt.TopicButtonPress, "obedio/button/BTN-001/press", `{not json`)

	if len(reqs.created) != 0 {
		t.Errorf("malformed payload must not create a request")
	}
}

// ── register / heartbeat / telemetry ──

func TestRegister_PublishesConfirmation(t *testing.T) {
	broker, _, devs := setupSubscriber(t)

	broker.deliver(mqtt.TopicDeviceRegister, mqtt.TopicDeviceRegister,
		`{"deviceId":"WATCH-7","type":"wearable","name":"Watch 7"}`)

	if len(devs.registered) != 1 || devs.registered[0].Type != "wearable" {
		t.Fatalf("expected raw type passed through for normalisation, got %+v", devs.registered)
	}
	if len(broker.out) != 1 || broker.out[0].topic != "obedio/device/WATCH-7/registered" {
		t.Errorf("expected registered confirmation, got %+v", broker.out)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	broker, _, devs := setupSubscriber(t)

	broker.deliver(mqtt.TopicDeviceRegister, mqtt.TopicDeviceRegister, `{"deviceId":"X"}`)

	if len(devs.registered) != 0 {
		t.Errorf("registration without type must be dropped")
	}
}

func TestHeartbeat_UnknownDeviceAutoRegisters(t *testing.T) {
	broker, _, devs := setupSubscriber(t)

	broker.deliver(mqtt.TopicDeviceHeartbeat, mqtt.TopicDeviceHeartbeat, `{"deviceId":"RPT-1","type":"repeater"}`)

	if len(devs.registered) != 1 || devs.registered[0].Type != "repeater" {
		t.Errorf("expected auto registration, got %+v", devs.registered)
	}
}

func TestTelemetry_UsesTopicKey(t *testing.T) {
	broker, _, devs := setupSubscriber(t)
	devs.known["BTN-9"] = ""

	broker.deliver(mqtt.TopicDeviceTelemetry, "obedio/device/BTN-9/telemetry", `{"battery":50}`)

	if len(devs.telemetry) != 1 || devs.telemetry[0] != "BTN-9" {
		t.Errorf("expected telemetry for BTN-9, got %v", devs.telemetry)
	}
}

// ── acknowledge ──

func TestAcknowledge_AcceptsAsBoundCrew(t *testing.T) {
	broker, reqs, devs := setupSubscriber(t)
	devs.known["WATCH-7"] = "crew-7"

	broker.deliver(mqtt.TopicWatchAck, "obedio/watch/WATCH-7/acknowledge", `{"requestId":"req-42","action":"accept"}`)

	if len(reqs.transitions) != 1 || reqs.transitions[0] != "req-42:accepted:crew-7" {
		t.Fatalf("expected accept by crew-7, got %v", reqs.transitions)
	}
	if len(devs.events) != 1 || devs.events[0] != "WATCH-7:acknowledge" {
		t.Errorf("expected acknowledge event, got %v", devs.events)
	}
}

func TestAcknowledge_UnboundWatchIgnored(t *testing.T) {
	broker, reqs, devs := setupSubscriber(t)
	devs.known["WATCH-8"] = ""

	broker.deliver(mqtt.TopicWatchAck, "obedio/watch/WATCH-8/acknowledge", `{"requestId":"req-42"}`)

	if len(reqs.transitions) != 0 {
		t.Errorf("unbound watch must not accept, got %v", reqs.transitions)
	}
}

func TestAcknowledge_AlreadyAccepted(t *testing.T) {
	broker, reqs, devs := setupSubscriber(t)
	devs.known["WATCH-7"] = "crew-7"
	reqs.transErr = service.ErrInvalidTransition

	broker.deliver(mqtt.TopicWatchAck, "obedio/watch/WATCH-7/acknowledge", `{"requestId":"req-42"}`)

	if len(devs.events) != 0 {
		t.Errorf("rejected acknowledge should not be journalled, got %v", devs.events)
	}
}

func TestStart_SubscribeError(t *testing.T) {
	sub := NewSubscriber(failingBroker{}, &fakeRequests{}, newFakeDevices(), zap.NewNop())
	if err := sub.Start(context.Background()); err == nil {
		t.Error("expected subscribe error")
	}
}

type failingBroker struct{}

func (failingBroker) Subscribe(string, mqtt.Handler) error { return errors.New("broker down") }
func (failingBroker) Unsubscribe(...string) error          { return errors.New("broker down") }
func (failingBroker) PublishJSON(context.Context, string, any) error {
	return errors.New("broker down")
}
