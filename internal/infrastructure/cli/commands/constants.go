package commands

// Error messages
const (
	ErrHistoryStoreUnavailable = "history store unavailable"
	ErrCacheStoreUnavailable   = "cache store unavailable"
	ErrDoctorUnavailable       = "doctor service unavailable"
	ErrQueryRequired           = "--query required"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoCachedResponses        = "No cached responses."
	MsgHistoryCleared           = "History cleared."
	MsgCacheCleared             = "Cache cleared."
)

// TimestampFormat is used for list output.
const TimestampFormat = "2006-01-02 15:04:05"
