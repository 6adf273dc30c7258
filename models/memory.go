package models

import "time"

type ConversationTurn struct {
	Timestamp     time.Time         `json:"timestamp"`
	UserInput     string            `json:"user_input"`
	AgentResponse string            `json:"agent_response"`
	ToolsUsed     []ToolID          `json:"tools_used"`
	Complexity    Complexity        `json:"plan_complexity"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// StudySession is the archived aggregate of one ended session.
type StudySession struct {
	SessionID      string         `json:"session_id" db:"session_id"`
	StartTime      time.Time      `json:"start_time" db:"start_time"`
	EndTime        time.Time      `json:"end_time" db:"end_time"`
	TopicsCovered  []string       `json:"topics_covered" db:"topics_covered"`
	ToolsUsedCount map[ToolID]int `json:"tools_used_count" db:"tools_used_count"`
	TotalTurns     int            `json:"total_turns" db:"total_turns"`
	DocumentUsed   bool           `json:"document_used" db:"document_used"`
}

type SessionSummary struct {
	SessionID         string         `json:"session_id"`
	DurationMinutes   int            `json:"duration_minutes"`
	TopicsCovered     []string       `json:"topics_covered"`
	ToolsUsed         map[ToolID]int `json:"tools_used"`
	TotalInteractions int            `json:"total_interactions"`
}

type LearningPatterns struct {
	MostUsedTools map[ToolID]int `json:"most_used_tools"`
	CommonTopics  []string       `json:"common_topics"`
}

type LearningInsights struct {
	CurrentSession SessionSummary   `json:"current_session"`
	Patterns       LearningPatterns `json:"patterns"`
	Suggestions    []string         `json:"suggestions"`
}
