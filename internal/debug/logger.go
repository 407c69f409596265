package debug

import "log"

// Announce logs whether the dashboard is on.
func (h *Hub) Announce() {
	if h.enabled {
		log.Println("🐛 Debug Dashboard enabled on /ws/debug")
	}
}

// LogDebug envía un log de nivel debug al dashboard
func (h *Hub) LogDebug(message string, metadata map[string]interface{}) {
	h.SendLog("backend", "debug", message, metadata)
}

// LogInfo envía un log de nivel info al dashboard
func (h *Hub) LogInfo(message string, metadata map[string]interface{}) {
	h.SendLog("backend", "info", message, metadata)
}

// LogWarn envía un log de nivel warn al dashboard
func (h *Hub) LogWarn(message string, metadata map[string]interface{}) {
	h.SendLog("backend", "warn", message, metadata)
}

// LogError envía un log de nivel error al dashboard
func (h *Hub) LogError(message string, metadata map[string]interface{}) {
	h.SendLog("backend", "error", message, metadata)
}
