package nerdfonts

// Symbols used in command output
const (
	Calendar            = "" //
	CheckCircle         = "" //
	ExclamationCircle   = "" //
	ExclamationTriangle = "" //
	InfoCircle          = "" //
	Globe               = "" //
	User                = "" //
	Bell                = "" //
)
