package models

// APIResponse is the standard response envelope for all API endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Type    string      `json:"type"`
	Error   interface{} `json:"error"`
	Message string      `json:"message"`
}
