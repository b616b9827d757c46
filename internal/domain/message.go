package domain

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// NormalizeRole maps anything that is not the visitor onto the assistant.
func NormalizeRole(role string) Role {
	if Role(role) == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}
