package dto

import "time"

type ChatRequest struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message" validate:"required"`
	Mode      string `json:"mode" validate:"omitempty,oneof=knowledge hybrid model_only"`
}

type ChatResponse struct {
	SessionId string `json:"session_id"`
	Answer    string `json:"answer"`
	Provider  string `json:"provider"`
}

type ChatMessageItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	SessionId string            `json:"session_id"`
	Messages  []ChatMessageItem `json:"messages"`
}

type SessionListResponse struct {
	Sessions []string `json:"sessions"`
}

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
}

type ProviderStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Active    bool   `json:"active"`
}

type ProvidersResponse struct {
	Providers []ProviderStatus `json:"providers"`
}
