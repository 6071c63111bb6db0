package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/storefront/internal/order/domain"
)

func respondList(c *gin.Context, orders []domain.Order) {
	data := make([]domain.Response, 0, len(orders))
	for i := range orders {
		data = append(data, domain.ToResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
