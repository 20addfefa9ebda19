// Package api exposes the routing pipeline over HTTP.
//
// # Endpoints
//
//	POST /v1/route   route a board, body is a pipeline.Options document
//	GET  /healthz    liveness probe
//
// A route request carries the board inline:
//
//	{
//	  "board": "(kicad_pcb ...)",
//	  "board_format": "kicad",
//	  "strategy": "ripup",
//	  "formats": ["kicad", "svg"]
//	}
//
// The response holds the routing summary and every requested artifact,
// base64 encoded. Errors are reported as {"error": {"code", "message"}}
// with the status derived from the error code.
package api
