package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths are infrastructure endpoints reachable without a token.
var publicPaths = map[string]bool{
	"/health":       true,
	"/health/db":    true,
	"/health/redis": true,
	"/metrics":      true,
}

// AuthSkipper matches on the route path, so it only sees registered routes.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

func IsPublicPath(path string) bool {
	return publicPaths[path]
}
