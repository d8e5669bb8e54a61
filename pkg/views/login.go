package views

// LoginView is the only view reachable without authentication
type LoginView struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle"`
	Fields   []string `json:"fields"`
	Submit   string   `json:"submit"`
	Error    string   `json:"error,omitempty"`
}

// Login renders the credential form, with an optional inline error
func Login(errMsg string) LoginView {
	return LoginView{
		Title:    "ShastraShield AI",
		Subtitle: "Autonomous Security Agent",
		Fields:   []string{"Agent Identity", "Secret Key"},
		Submit:   "Establish Link",
		Error:    errMsg,
	}
}
