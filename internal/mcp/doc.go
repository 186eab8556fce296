// Package mcp implements the Model Context Protocol server for the KYC
// tool surface.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over the MCP Streamable HTTP transport on
// a single endpoint:
//
//   - POST /mcp — JSON-RPC requests (initialize, tools/list, tools/call)
//   - GET  /mcp — per-session SSE event stream
//   - DELETE /mcp — session termination
//
// A client starts with an initialize request; the response carries a fresh
// session id in the Mcp-Session-Id header, and every later request on that
// session presents the same header. Requests without an id are notifications
// and are acknowledged with HTTP 202. Requests on one session are handled
// strictly in order; independent sessions proceed concurrently.
//
// # Authentication
//
// Access is guarded by an optional shared secret, accepted as the X-Api-Key
// header, an Authorization bearer token, or the api_key query parameter.
// A request with no credential gets 401, a wrong credential 403. With no
// secret configured the endpoint is open (insecure mode).
//
// # Tool Discovery and Execution
//
// tools/list returns the registered tool definitions with their JSON Schema
// inputs. tools/call routes through the dispatcher: argument validation
// failures and unknown tool names are JSON-RPC errors, while failures inside
// a tool handler come back as a normal result with isError set.
package mcp
