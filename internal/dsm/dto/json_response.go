package dto

import "encoding/json"

// JSONResponse is the envelope of every Web API answer.
type JSONResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *JSONError      `json:"error"`
}

// JSONError is the error object of a failed call.
type JSONError struct {
	Code   int              `json:"code"`
	Errors []JSONErrorEntry `json:"errors"`
}

// JSONErrorEntry is a per-item error, reported by some batch methods.
type JSONErrorEntry struct {
	Code int    `json:"code"`
	ID   string `json:"id"`
}

// JSONLogin is the data of a successful SYNO.API.Auth login.
type JSONLogin struct {
	SID string `json:"sid"`
}

// JSONCreate is the data of a successful task creation.
type JSONCreate struct {
	TaskIDs []string `json:"task_id"`
	ListIDs []string `json:"list_id"`
}
