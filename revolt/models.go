package revolt

// FieldStatusText is the field name Revolt expects when clearing a status
const FieldStatusText = "StatusText"

type User struct {
	ID       string      `json:"_id"`
	Username string      `json:"username"`
	Status   *UserStatus `json:"status,omitempty"`
}

type UserStatus struct {
	Text     *string `json:"text,omitempty"`
	Presence string  `json:"presence,omitempty"`
}

// EditUser is the body of PATCH /users/@me
type EditUser struct {
	Status *UserStatus `json:"status,omitempty"`
	Remove []string    `json:"remove,omitempty"`
}

type rateLimitBody struct {
	RetryAfter *float64 `json:"retry_after"`
}
