package ingest

import (
	"fmt"
	"strings"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
)

// Press type and button names sent by the button firmware.
const (
	PressSingle = "single"
	PressDouble = "double"
	PressLong   = "long"
	PressShake  = "shake"

	ButtonMain = "main"
)

// auxiliary buttons map to fixed request types
var auxButtons = map[string]model.RequestType{
	"aux1": model.RequestDND,
	"aux2": model.RequestLights,
	"aux3": model.RequestPrepareFood,
	"aux4": model.RequestBringDrinks,
}

// DeriveRequest maps a physical press onto a request type and priority.
// Shake wins over everything, then long press, then the auxiliary buttons.
func DeriveRequest(button, pressType string) (model.RequestType, model.Priority) {
	switch pressType {
	case PressShake:
		return model.RequestEmergency, model.PriorityEmergency
	case PressLong:
		return model.RequestVoice, model.PriorityNormal
	}
	if t, ok := auxButtons[button]; ok {
		return t, model.PriorityNormal
	}
	if pressType == PressDouble {
		return model.RequestService, model.PriorityUrgent
	}
	return model.RequestService, model.PriorityNormal
}

// pressNote human readable context stored as the request message
func pressNote(msg *ButtonPress, deviceKey string) string {
	button := msg.Button
	if button == "" {
		button = ButtonMain
	}
	press := msg.PressType
	if press == "" {
		press = PressSingle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Button %s, %s press from %s", button, press, deviceKey)
	if msg.Battery != nil {
		fmt.Fprintf(&b, ", battery %d%%", *msg.Battery)
	}
	if msg.RSSI != nil {
		fmt.Fprintf(&b, ", signal %d dBm", *msg.RSSI)
	}
	return b.String()
}
