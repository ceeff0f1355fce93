package http

import "github.com/labstack/echo/v4"

// Handler registers routes on the server's Echo instance. The server
// accepts one Handler; compose multiple with a router that fans out.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
