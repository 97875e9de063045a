package middleware

import (
	"net/http"

	"boadwuma-backend/internal/models"
	"boadwuma-backend/internal/modules/users"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWT returns the token-verification middleware for protected routes.
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(secret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(users.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or missing token"})
		},
	})
}

// ExtractClaims copies the verified claims into the echo context so handlers
// can read userID and userRole without touching the raw token.
func ExtractClaims(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid or missing token"})
		}
		claims, ok := token.Claims.(*users.Claims)
		if !ok || claims.UserID == "" {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid token claims"})
		}
		c.Set("userID", claims.UserID)
		c.Set("userRole", claims.Role)
		return next(c)
	}
}
