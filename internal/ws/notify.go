package ws

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

type SkillCreatedEvent struct {
	Type      string `json:"type"`
	Skill     string `json:"skill"`
	Timestamp string `json:"timestamp"`
}

var defaultHub atomic.Pointer[Hub]

func SetDefaultHub(h *Hub) {
	defaultHub.Store(h)
}

// NotifySkillCreated broadcasts a skill-created event to the live feed.
// Safe to call before any hub is set.
func NotifySkillCreated(name string) {
	h := defaultHub.Load()
	if h == nil {
		return
	}

	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}

	evt := SkillCreatedEvent{
		Type:      "skill_created",
		Skill:     name,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}

	h.Broadcast(b)
}
