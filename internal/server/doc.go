// Package server exposes the captcha service over MCP (Model Context Protocol)
// and over a plain JSON HTTP API.
//
// # Protocol
//
// The MCP server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - captcha_ocr: Read the text of a captcha image
//   - captcha_detect: Find character boxes in a click captcha
//
// Slide captchas:
//   - captcha_slide_match: Locate a puzzle piece in its background
//   - captcha_slide_comparison: Locate the gap by diffing two backgrounds
//
// Service control:
//   - captcha_toggle_feature: Enable or disable ocr, det and slide
//   - captcha_status: List the enabled features
//
// Images are passed either as base64 (optionally as a data URL) or as a file
// path. Files are read through a byte cache that lives as long as the server.
//
// # HTTP API
//
// HTTP serves the same operations as POST /ocr, /det, /slide-match,
// /slide-comparison and /toggle-feature, plus GET /status. Every response is
// a Response envelope.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and a ToolError as data. Its kind names the failing stage
// (DECODE_ERROR, DIMENSION_ERROR, CONFIGURATION_ERROR and so on). Over HTTP
// the same kinds map to status codes through StatusFor.
package server
