package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// ServerHeader identifies the HTTP host adapter in responses.
var ServerHeader = "Go-NLCEP/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName     = "go-nlcep"
	AppLongName = "Natural Language Calendar Event Parser"
	AppID       = "com.github.tartampluch.go-nlcep"
	EnvPrefix   = "NLCEP_"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess      = 0
	ExitCodeError        = 1
	ExitCodeParseFailure = 2
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagConfig   = "config"
	FlagDebug    = "debug"
	FlagNow      = "now"
	FlagTimezone = "tz"
	FlagJSON     = "json"
	FlagLang     = "lang"
	FlagFile     = "file"
	FlagListen   = "listen"
	FlagWorkers  = "workers"
	FlagLogFile  = "log-file"

	FlagDescConfig   = "Path to a YAML settings file"
	FlagDescDebug    = "Enable debug logging to stderr"
	FlagDescNow      = "Reference instant in RFC3339 (defaults to the current time)"
	FlagDescTimezone = "IANA timezone used for the reference instant"
	FlagDescJSON     = "Print the result as JSON"
	FlagDescLang     = "Language for failure messages (en, fr)"
	FlagDescFile     = "File with one input per line (defaults to stdin)"
	FlagDescListen   = "HTTP listen address"
	FlagDescWorkers  = "Maximum number of concurrent parses"
	FlagDescLogFile  = "Also append JSON logs to this file"

	MsgVersionTemplate = "{{.Name}} version {{.Version}}\n"
)

// -----------------------------------------------------------------------------
// CLI Commands
// -----------------------------------------------------------------------------

const (
	CmdRootShort  = "Turn a short sentence into a calendar event"
	CmdParseUse   = "parse [text...]"
	CmdParseShort = "Parse one sentence (arguments, or stdin when none are given)"
	CmdBatchUse   = "batch"
	CmdBatchShort = "Parse one sentence per line and print JSON lines"
	CmdICSUse     = "ics [text...]"
	CmdICSShort   = "Parse sentences and print them as an iCalendar file"
	CmdServeUse   = "serve"
	CmdServeShort = "Serve the parser over HTTP"

	// ArgSeparator joins command-line words into one input sentence.
	ArgSeparator = " "
)

// -----------------------------------------------------------------------------
// Default Values & Business Logic
// -----------------------------------------------------------------------------

const (
	DefaultListen   = "127.0.0.1:18080"
	DefaultTimezone = "Local"
	DefaultLanguage = "en"
	DefaultLogLevel = "warn"
	DefaultWorkers  = 8

	// MaxInputLength bounds a single input accepted by the host adapters.
	MaxInputLength = 1024

	// MaxLeapYearSearch bounds the search for the next Feb 29 of a yearless date.
	MaxLeapYearSearch = 8

	// DaysPerWeek is the skip applied by "next <weekday>".
	DaysPerWeek = 7
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Environment Variables
// -----------------------------------------------------------------------------

const (
	EnvListen   = EnvPrefix + "LISTEN"
	EnvTimezone = EnvPrefix + "TIMEZONE"
	EnvLanguage = EnvPrefix + "LANGUAGE"
	EnvLogLevel = EnvPrefix + "LOG_LEVEL"
)

// -----------------------------------------------------------------------------
// Standards: iCalendar
// -----------------------------------------------------------------------------

const (
	ICalVersion = "2.0"
	ICalProdid  = "-//Go NLCEP//Engine//EN"
	ICalScale   = "GREGORIAN"
	ICalMethod  = "PUBLISH"
	ICalDomain  = "go-nlcep"

	PropUID      = "UID"
	PropSummary  = "SUMMARY"
	PropLocation = "LOCATION"
	PropDTStart  = "DTSTART"
	PropDTEnd    = "DTEND"
	PropDTStamp  = "DTSTAMP"
	PropVersion  = "VERSION"
	PropProdid   = "PRODID"
	PropCalScale = "CALSCALE"
	PropMethod   = "METHOD"

	// DefaultEventDuration is the length given to timed events on export.
	DefaultEventDuration = 1 * time.Hour
)

// -----------------------------------------------------------------------------
// Data Formats
// -----------------------------------------------------------------------------

const (
	TimeFormatHM     = "15:04"
	FormatInstant    = time.RFC3339
	FormatUIDInput   = "%s|%s"
	FormatETag       = `"%s"`
	FormatValidation = "%s: %s" // "text: required"
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	MaxRequestBody     = 16 * 1024
	AllowedMethods     = "GET, POST"
	RouteParse         = "/parse"
	RouteParseICS      = "/parse.ics"
	RouteHealth        = "/healthz"
	ParamText          = "text"
	ParamNow           = "now"
	ParamLang          = "lang"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType    = "Content-Type"
	HeaderCacheControl   = "Cache-Control"
	HeaderAllow          = "Allow"
	HeaderXContentType   = "X-Content-Type-Options"
	HeaderServer         = "Server"
	HeaderAcceptLanguage = "Accept-Language"
	HeaderETag           = "ETag"
	HeaderIfNoneMatch    = "If-None-Match"

	MimeJSON         = "application/json; charset=utf-8"
	MimeTextCalendar = "text/calendar; charset=utf-8"
	MimeNoSniff      = "nosniff"
	CacheControlNone = "no-store"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrNoDateFound     = "no date found"
	ErrInvalidDate     = "invalid date"
	ErrSettingsRead    = "failed to read settings file"
	ErrSettingsDecode  = "failed to decode settings file"
	ErrTimezone        = "unknown timezone"
	ErrLogLevel        = "unknown log level"
	ErrInstantParse    = "reference instant must be RFC3339"
	ErrInputEmpty      = "input text is empty"
	ErrInputRead       = "failed to read input"
	ErrICalEncode      = "failed to encode iCalendar data"
	ErrServerStartup   = "server startup failed"
	ErrServerShutdown  = "server shutdown failed"
	ErrListenRequired  = "listen address is required"
	ErrAppFailed       = "application failed unexpectedly"
	ErrWriteResp       = "failed to write response body"
	ErrLocalesAccess   = "failed to access embedded locales"
	ErrLocaleLoad      = "failed to load locale file"
	ErrLogFile         = "failed to open log file"
	ErrPanicRecovered  = "recovered from panic"
	ErrBatchLineFailed = "batch line failed"
	ErrBodyTooLarge    = "request body too large"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
	HTTPMsgOK           = "ok"

	HealthKeyStatus  = "status"
	HealthKeyVersion = "version"
	HealthKeyServed  = "served"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting    = "Starting application"
	MsgAppStop        = "Application stopped gracefully"
	MsgServerListen   = "HTTP server listening"
	MsgServerStop     = "Shutting down HTTP server..."
	MsgParseStarted   = "Parse started"
	MsgDateSelected   = "Date expression selected"
	MsgTimeSelected   = "Time expression selected"
	MsgLocSelected    = "Location selected"
	MsgParseFailed    = "Parse failed"
	MsgParseDone      = "Parse finished"
	MsgRequestServed  = "Request served"
	MsgBatchDone      = "Batch finished"
	MsgLocaleSkip     = "Skipping non-locale file"
	MsgLocaleBadName  = "Skipping malformed locale filename"
	MsgLocaleLoaded   = "Locale loaded successfully"
	MsgTransMissing   = "Missing translation key"
	MsgSettingsLoaded = "Settings loaded"
	MsgEnvFileMissing = "No .env file found"
	MsgLogWarning     = "Warning: %s at %s: %v\n"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyErrNoDateFound = "err_no_date_found"
	TKeyErrInvalidDate = "err_invalid_date"    // Requires Text
	TKeyErrRequest     = "err_invalid_request" // Requires Reason
	TKeyErrUnknown     = "err_unknown"
	TKeyLblSummary     = "lbl_summary"
	TKeyLblDate        = "lbl_date"
	TKeyLblTime        = "lbl_time"
	TKeyLblAllDay      = "lbl_all_day"
	TKeyLblLocation    = "lbl_location"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyInput     = "input"
	LogKeyNow       = "now"
	LogKeySpan      = "span"
	LogKeyKind      = "kind"
	LogKeyText      = "text"
	LogKeyDate      = "date"
	LogKeyLocation  = "location"
	LogKeySummary   = "summary"
	LogKeyListen    = "listen"
	LogKeyMethod    = "method"
	LogKeyPath      = "path"
	LogKeyStatus    = "status_code"
	LogKeyDuration  = "duration_ms"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyLines     = "lines"
	LogKeyFailed    = "failed"
	LogKeyLine      = "line"
	LogKeyStack     = "stack"
	LogKeyTimezone  = "timezone"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompEngine = "engine"
	CompServer = "server"
	CompMain   = "main"
	CompI18n   = "i18n"
	CompConfig = "config"
	CompBatch  = "batch"
)
