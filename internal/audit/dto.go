// AngelaMos | 2026
// dto.go

package audit

import (
	"time"
)

// Entry is what callers hand to Record.
type Entry struct {
	Type      string
	UserEmail string
	Message   string
	Metadata  map[string]any
	IPAddress string
}

type ListLogsParams struct {
	Page     int
	PageSize int
	Type     string
	Email    string
}

func (p *ListLogsParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

type LogResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	UserEmail string         `json:"user_email"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IPAddress string         `json:"ip_address,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func ToLogResponseList(logs []Log) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, LogResponse{
			ID:        l.ID,
			Type:      l.Type,
			UserEmail: l.UserEmail,
			Message:   l.Message,
			Metadata:  l.Metadata,
			IPAddress: l.IPAddress,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}
