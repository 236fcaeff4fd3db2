package model

// Session is the authenticated credential together with the identity it belongs to.
// Both fields are set or neither is; the zero Session means "unauthenticated".
type Session struct {
	Token    string   `json:"token"`
	Identity Identity `json:"user"`
}

// IsZero reports whether s represents the unauthenticated state.
func (s Session) IsZero() bool {
	return s.Token == "" && s.Identity == (Identity{})
}
