package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model":          s.cfg.AnthropicModel,
		"qa_model":       s.cfg.AnswerModel,
		"strategy_model": s.cfg.StrategyModel,
		"queue_depth":    s.orchestrator.QueueDepth(),
		"stats":          s.stats.Snapshot(),
	})
}
