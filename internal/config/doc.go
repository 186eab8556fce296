// Package config handles configuration loading for kyc-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion, duration parsing, and validation.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from KYC_GATEWAY_CONFIG environment variable
//  2. ./config.yaml (current directory)
//  3. ~/.config/kyc-gateway/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  shared_secret: "${KYC_SHARED_SECRET}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	providers:
//	  timeout: "15s"
//	polling:
//	  interval: "1s"
//
// # Configuration Sections
//
// Server and authentication:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	auth:
//	  shared_secret: "${KYC_SHARED_SECRET}"  # empty = insecure mode
//
// External providers:
//
//	providers:
//	  timeout: "15s"
//	  records:
//	    base_url: "https://records.example.com"
//	    token_url: "https://id.example.com/token"
//	    client_id: "gateway"
//	    client_secret: "${KYC_RECORDS_SECRET}"
//	  documents:
//	    base_url: "https://docs.example.com"
//	    api_key: "${KYC_DOCS_KEY}"
//	  registry:            # optional
//	    base_url: "https://registry.example.com"
//	  screening:           # optional
//	    base_url: "https://screen.example.com"
//	    api_key: "${KYC_SCREEN_KEY}"
//
// Polling, audit, logging:
//
//	polling:
//	  interval: "1s"
//	  max_attempts: 30
//	audit:
//	  enabled: true
//	  path: "/var/lib/kyc-gateway/audit.db"
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Usage
//
// Load configuration from a path:
//
//	cfg, err := config.Load("/etc/kyc-gateway/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
