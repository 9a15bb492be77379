package ws

import "time"

type MessageType string

const (
	MsgSnapshot     MessageType = "snapshot"
	MsgValueChanged MessageType = "value_changed"
	MsgError        MessageType = "error"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	ID         string  `json:"id"`
	SensorType string  `json:"sensorType"`
	Unit       string  `json:"unit"`
	Enabled    bool    `json:"enabled"`
	State      string  `json:"state"`
	Available  bool    `json:"available"`
	Value      float64 `json:"value"`
	Samples    int     `json:"samples"`
}

// ValueChangedPayload carries a raw sample, not the moving average
type ValueChangedPayload struct {
	SensorID   string    `json:"sensorId"`
	SensorType string    `json:"sensorType"`
	Value      float64   `json:"value"`
	Accuracy   int       `json:"accuracy"`
	Timestamp  time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
