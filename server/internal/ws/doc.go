// Package ws streams the dashboard document to browsers over WebSocket.
//
// Each client gets the document in its own language (?lang= or
// Accept-Language) on connect and then on every broadcast tick:
//
//	{
//	  "event": "dashboard",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// The hub is mounted at /ws/stream by the server.
package ws
