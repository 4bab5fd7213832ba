// Package server implements the MCP (Model Context Protocol) server for
// music symbol matching.
//
// This package provides a JSON-RPC 2.0 server that exposes the distance
// transform, note head templates, template matching and watershed
// segmentation through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//   - image_unload: Drop a cached image and its distance tables
//
// Symbol Analysis:
//   - omr_distance_transform: Chamfer distance statistics and heat map
//   - omr_template_info: Variants, key points and anchors of a shape template
//   - omr_match_shape: Template matching candidates, best first
//   - omr_staff_scale: Line thickness and interline from run lengths
//   - omr_watershed: Basin count and boundary overlay
//
// Page tools share the path, region, named_region, threshold, adaptive,
// window and sensitivity arguments. Results computed on a region are
// reported in page coordinates.
//
// # Caching
//
// The server keeps three caches for the lifetime of the process: decoded
// images by path, distance tables by page, region, binarization and kernel,
// and note head descriptors by shape and interline. The table cache holds at
// most OMR_MCP_MAX_TABLES entries; image_unload empties the first two for one
// path.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv, err := server.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
