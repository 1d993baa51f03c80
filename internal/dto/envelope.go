package dto

// Envelope wraps every JSON body the API returns.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func OK(message string, data interface{}) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func OKCount(message string, count int, data interface{}) Envelope {
	return Envelope{Success: true, Message: message, Count: &count, Data: data}
}

func Fail(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Version   string `json:"version"`
}
