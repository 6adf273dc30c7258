package models

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
}

type MessageRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode,omitempty"`
}

type MessageResponse struct {
	Response    string      `json:"response"`
	ToolsUsed   []ToolID    `json:"tools_used,omitempty"`
	Trace       []string    `json:"trace,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
	Reflection  *Reflection `json:"reflection,omitempty"`
}

type DocumentRequest struct {
	Text string `json:"text"`
}

type DocumentResponse struct {
	Status     string `json:"status"`
	RAGEnabled bool   `json:"rag_enabled"`
	ChunkCount int    `json:"chunk_count"`
	Loaded     bool   `json:"loaded"`
}

type SummaryResponse struct {
	Summary  SessionSummary   `json:"summary"`
	History  string           `json:"history"`
	Insights LearningInsights `json:"insights"`
	Planning PlanningStats    `json:"planning"`
}
