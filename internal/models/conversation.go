// internal/models/conversation.go
package models

import "time"

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationPhase is the discovery-dialogue state machine.
type ConversationPhase string

const (
	PhaseNotStarted ConversationPhase = "not_started"
	PhaseInProgress ConversationPhase = "in_progress"
	PhaseCompleted  ConversationPhase = "completed"
)

// Understanding is the running, confidence-scored summary of what the
// system believes about the desired site.
type Understanding struct {
	Confidence   int      `json:"confidence"` // 0-100
	Purpose      string   `json:"purpose,omitempty"`
	Audience     string   `json:"audience,omitempty"`
	ContentTypes []string `json:"contentTypes,omitempty"`
	Features     []string `json:"features,omitempty"`
}

// ConversationState is the single live discovery dialogue for a session.
// Immutable once Completed except for the terminal structure handoff.
type ConversationState struct {
	ID            string            `json:"id"`
	Messages      []Message         `json:"messages"`
	Understanding Understanding     `json:"understanding"`
	Phase         ConversationPhase `json:"phase"`
	Completed     bool              `json:"completed"`
	Brief         *SiteBrief        `json:"brief,omitempty"`
}

// SiteBrief is the structured completion payload parsed out of the model's
// final reply, validated before the conversation may complete.
type SiteBrief struct {
	Purpose            string                 `json:"purpose"`
	Audience           string                 `json:"audience"`
	ContentTypes       []string               `json:"contentTypes"`
	Taxonomies         []string               `json:"taxonomies,omitempty"`
	Features           []string               `json:"features,omitempty"`
	RecommendedPlugins []PluginRecommendation `json:"recommendedPlugins,omitempty"`
}

// TurnReply is what one conversation turn hands back to the UI: either the
// next question with optional quick replies, or notice of completion.
type TurnReply struct {
	Question     string   `json:"question,omitempty"`
	QuickReplies []string `json:"quickReplies,omitempty"`
	Completed    bool     `json:"completed"`
}
