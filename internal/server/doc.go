// Package server implements the MCP (Model Context Protocol) server that
// exposes image handles as tools.
//
// The server speaks MCP over stdio. A client opens a file with image_open and
// receives an opaque handle; every other tool takes that handle, edits the
// image in place and reports the resulting state. Nothing reaches the disk
// until image_save is called.
//
// # Available Tools
//
// Handles:
//   - image_open: Open a file and return a handle
//   - image_info: Dimensions, format, quality, resolution and alpha state
//   - image_close: Free a handle
//   - image_list: List open handles
//
// Transforms:
//   - image_apply: Run a list of textual operations (see package pipeline)
//   - image_crop, image_scale, image_rotate, image_flip
//   - image_flatten: Composite onto an opaque color
//   - image_filter: Named pixel filters
//   - image_opacity: Blend toward transparency
//   - image_watermark: Composite another image
//
// Metadata:
//   - image_resolution: Read or set DPI
//   - image_quality: Read or set encoder quality
//
// Output:
//   - image_save: Write to disk
//   - image_render: Return the image as MCP image content
//   - image_data_uri: Return the image as a data: URI
//
// Inspection:
//   - image_sample_color, image_dominant_colors
//   - image_is_acceptable: Check a file without opening it
//   - image_formats: The supported formats and their quality ranges
//
// # Handles
//
// Handles live in a Registry for the lifetime of the server, bounded by
// server.max_handles. Calls on one handle are serialized; calls on different
// handles may run concurrently.
//
// # Error Handling
//
// Tool failures are returned as tool results with isError set and the
// imaging error text as content, so the client can correct the call.
//
// # Usage
//
//	srv := server.New(cfg.Server, logger)
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
