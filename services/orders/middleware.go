package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// authRequired exige a credencial do usuário final nas rotas de pedidos.
// A verificação do JWT em si é responsabilidade da Customers API; aqui só
// rejeitamos chamadas sem portador.
func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "Missing Authorization Bearer token"},
			})
			return
		}
		c.Next()
	}
}
