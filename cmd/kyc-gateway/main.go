// ABOUTME: Entry point for the kyc-gateway tool server
// ABOUTME: Exposes KYC verification tools to MCP clients over Streamable HTTP

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"

	"github.com/2389/kyc-gateway/internal/config"
	"github.com/2389/kyc-gateway/internal/gateway"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                                 _
| | ___   _  ___       __ _  __ _| |_ _____      ____ _ _   _
| |/ / | | |/ __|____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
|   <| |_| | (_|_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
|_|\_\\__, |\___|     \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
      |___/           |___/                             |___/
`

// getConfigPath returns the path to the gateway config file.
// Priority: KYC_GATEWAY_CONFIG env var > XDG_CONFIG_HOME/kyc-gateway/config.yaml > ~/.config/kyc-gateway/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("KYC_GATEWAY_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "kyc-gateway", "config.yaml")
}

// getDataPath returns the path to the gateway data directory.
// Priority: XDG_DATA_HOME/kyc-gateway > ~/.local/share/kyc-gateway
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "kyc-gateway")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: kyc-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve    Start the gateway server")
		fmt.Println("  init     Create a new config file interactively")
		fmt.Println("  health   Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Audit:     %s\n", auditSummary(cfg.Audit))

	if cfg.Auth.SharedSecret == "" {
		red.Print("    ▶ ")
		yellow.Println("Auth:      DISABLED — endpoint accepts unauthenticated requests")
	} else {
		green.Print("    ▶ ")
		fmt.Println("Auth:      shared secret")
	}

	fmt.Println()

	logger.Info("starting kyc-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"version", version,
	)

	gateway.Version = version
	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func auditSummary(cfg config.AuditConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return cfg.Path
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	// Format timestamp
	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	// Colorize level
	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	// Print message
	buf.WriteString(r.Message)

	// Print handler-level attrs first (from WithAttrs)
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	// Print record attrs
	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("kyc-gateway configuration setup")
	fmt.Println("===============================")
	fmt.Println()

	// Default paths
	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultAuditPath := filepath.Join(defaultDataPath, "audit.db")

	// Output filename
	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	// Check if file exists
	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	// Server configuration
	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:8080")
	sharedSecret := prompt(reader, "Shared secret (empty disables auth)", "")

	// Providers
	fmt.Println("\n--- Provider Configuration ---")
	recordsURL := prompt(reader, "Record store base URL", "https://records.example.com")
	tokenURL := prompt(reader, "Identity provider token URL", "https://id.example.com/token")
	clientID := prompt(reader, "Record store client id", "kyc-gateway")
	docsURL := prompt(reader, "Document analysis base URL", "https://docs.example.com")
	registryURL := prompt(reader, "Entity registry base URL (empty to skip)", "")
	screeningURL := prompt(reader, "Screening base URL (empty to skip)", "")

	// Audit
	fmt.Println("\n--- Audit Configuration ---")
	enableAudit := prompt(reader, "Enable invocation audit log?", "yes")
	auditEnabled := strings.ToLower(enableAudit) == "yes" || strings.ToLower(enableAudit) == "y"
	auditPath := defaultAuditPath
	if auditEnabled {
		auditPath = prompt(reader, "Audit database path", defaultAuditPath)
	}

	// Logging
	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	// Generate config
	var cfg strings.Builder
	cfg.WriteString("# kyc-gateway configuration\n")
	cfg.WriteString("# Generated by kyc-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  shared_secret: \"%s\"\n", sharedSecret))
	cfg.WriteString("\n")

	cfg.WriteString("audit:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", auditEnabled))
	if auditEnabled {
		cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", auditPath))
	}
	cfg.WriteString("\n")

	cfg.WriteString("providers:\n")
	cfg.WriteString("  timeout: \"15s\"\n")
	cfg.WriteString("  records:\n")
	cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", recordsURL))
	cfg.WriteString(fmt.Sprintf("    token_url: \"%s\"\n", tokenURL))
	cfg.WriteString(fmt.Sprintf("    client_id: \"%s\"\n", clientID))
	cfg.WriteString("    client_secret: \"${KYC_RECORDS_SECRET}\"\n")
	cfg.WriteString("  documents:\n")
	cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", docsURL))
	cfg.WriteString("    api_key: \"${KYC_DOCS_KEY}\"\n")
	if registryURL != "" {
		cfg.WriteString("  registry:\n")
		cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", registryURL))
	}
	if screeningURL != "" {
		cfg.WriteString("  screening:\n")
		cfg.WriteString(fmt.Sprintf("    base_url: \"%s\"\n", screeningURL))
		cfg.WriteString("    api_key: \"${KYC_SCREEN_KEY}\"\n")
	}
	cfg.WriteString("\n")

	cfg.WriteString("polling:\n")
	cfg.WriteString("  interval: \"1s\"\n")
	cfg.WriteString("  max_attempts: 30\n")
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	// Ensure config directory exists
	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Write config file
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Ensure data directory exists
	if auditEnabled {
		dataDir := filepath.Dir(auditPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Println("\nTo start the server:")
	fmt.Printf("  kyc-gateway serve\n")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
