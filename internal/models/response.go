package models

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// TurnRequest is the payload for send_message.
type TurnRequest struct {
	Message string `json:"message"`
}

// Validate checks a TurnRequest before processing.
func (r *TurnRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// CreateSessionRequest is the payload for create_session.
type CreateSessionRequest struct {
	UserID string `json:"user_id,omitempty"`
}

// TurnResponse is the structured reply for one processed turn.
type TurnResponse struct {
	SessionID     string             `json:"session_id"`
	Message       string             `json:"message"`
	Quote         *QuoteData         `json:"quote,omitempty"`
	RequiresHuman bool               `json:"requires_human"`
	State         *ConversationState `json:"state"`
}
