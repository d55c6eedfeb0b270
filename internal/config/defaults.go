package config

import (
	"time"

	"github.com/keyfc/bbs/internal/transport"
)

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultBaseURL     = "https://keyfc.net/bbs/"
	DefaultUserAgent   = transport.DefaultUserAgent
	DefaultHTTPTimeout = 30 * time.Second
	DefaultAutoLogin   = true
)

// Environment variables read by Load
const (
	EnvConfig    = "KEYFC_CONFIG"
	EnvBaseURL   = "KEYFC_BASE_URL"
	EnvUserAgent = "KEYFC_USER_AGENT"
	EnvUsername  = "KEYFC_USERNAME"
	EnvPassword  = "KEYFC_PASSWORD"
	EnvProxy     = "KEYFC_PROXY"

	EnvOTLPEndpoint = "KEYFC_OTLP_ENDPOINT"
)
