package realtime

import (
	"encoding/json"

	"baerhub/pkg/baerapi"
)

const (
	frameSystem = "system"
	frameChat   = "chat"
)

type frame struct {
	Type      string             `json:"type"`
	Username  string             `json:"username"`
	Text      string             `json:"text"`
	Timestamp *baerapi.Timestamp `json:"timestamp"`
	// Users is nil when the frame carries no roster.
	Users []string `json:"users"`
}

// decodeFrame reports ok=false for payloads that are not a JSON object.
func decodeFrame(data []byte) (frame, bool) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return frame{}, false
	}

	return f, true
}
