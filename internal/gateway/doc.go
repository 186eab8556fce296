// Package gateway assembles the kyc-gateway from configuration and runs it.
//
// # Overview
//
// New wires the shared upstream HTTP client, the credential cache, the four
// provider clients, the async operation poller, the KYC tool pack, the
// optional SQLite audit store, and the MCP server into one http.Server.
// Run serves until the context is canceled, then shuts everything down
// gracefully.
//
// # Endpoints
//
//   - /mcp           — the MCP Streamable HTTP endpoint
//   - /health        — liveness: status, version, uptime
//   - /health/ready  — readiness: live session count, audit state
package gateway
