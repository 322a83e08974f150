package domain

// Session is the authenticated identity held on this device.
// A nil *Session means anonymous.
type Session struct {
	Token string
	Name  string
	Email string
}

// LoginResult is what the backend returns for valid credentials.
type LoginResult struct {
	Token string
	Name  string
	Email string
}
