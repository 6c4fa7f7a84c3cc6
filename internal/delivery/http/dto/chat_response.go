package dto

import (
	"time"

	"bds-sync/internal/usecase"
)

type ChatReplyResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Timestamp string `json:"timestamp"`
}

func NewChatReplyResponse(r *usecase.ChatReply) ChatReplyResponse {
	return ChatReplyResponse{
		Response:  r.Response,
		SessionID: r.SessionID,
		Timestamp: r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ChatHistoryResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []usecase.ChatMessage `json:"messages"`
}

type ChatSuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
