package middleware

import (
	"net/http"
	"strings"

	"backoffice-service/pkg/jwtutil"
	"backoffice-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token issued by the external auth
// provider and extracts the user and storefront scope
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Extract the token
		tokenString := parts[1]

		// Validate the token
		claims, err := jwtutil.ValidateToken(tokenString)
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("user_role", claims.Role)

		// Store the storefront scope if present
		if claims.StoreID != nil {
			c.Set("store_id", *claims.StoreID)
		}

		// Token is valid, proceed with the request
		return next(c)
	}
}

// GetStoreIDFromContext retrieves the storefront scope from the context.
// Returns 0, false if the token carried no store id.
func GetStoreIDFromContext(c echo.Context) (uint, bool) {
	storeID, ok := c.Get("store_id").(uint)
	return storeID, ok
}
