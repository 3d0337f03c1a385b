package types

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

// NodeScheduleDTO is one node of a calculation result.
type NodeScheduleDTO struct {
	ID          string `json:"id"`
	EarlyStart  int    `json:"early_start"`
	EarlyFinish int    `json:"early_finish"`
	LateStart   int    `json:"late_start"`
	LateFinish  int    `json:"late_finish"`
	TotalFloat  int    `json:"total_float"`
	FreeFloat   int    `json:"free_float"`
	IsCritical  bool   `json:"is_critical"`
}

// CalculateResponse is the success payload of a calculation run.
type CalculateResponse struct {
	Nodes        []NodeScheduleDTO `json:"nodes"`
	CriticalPath [][]string        `json:"critical_path"`
	Warnings     []string          `json:"warnings"`
}
