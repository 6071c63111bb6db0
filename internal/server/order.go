package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/storefront/internal/order/domain"
)

// CreateOrder
// POST /api/orders
func (s *Server) CreateOrder(c *gin.Context) {
	var req domain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, domain.ToResponse(order))
}

// GetOrder
// GET /api/orders/:id
func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, domain.ToResponse(order))
}

// ListMyOrders
// GET /api/orders/mine
func (s *Server) ListMyOrders(c *gin.Context) {
	orders, err := s.orderSvc.ListMine(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondList(c, orders)
}
