package calendar

// OAuth scopes required for the operation of this tool. Calendar access is
// read-only; the userinfo scopes let the status command show which account
// was authorized.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar.events.readonly",
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"openid",
}

// Loopback redirect endpoint for the interactive authorization flow. The
// port is fixed; it must match an authorized redirect URI of the OAuth
// client, so a bind failure is surfaced rather than falling back to a
// random port.
const (
	redirectHost = "localhost"
	redirectPort = 8098
)

// Messages shown during the interactive flow.
const (
	authPromptMessage  = "Please visit this URL: %s\n"
	authSuccessMessage = "The auth flow is complete; you may close this window."
)
