package handler

import (
	"errors"
	"net/http"
	"strconv"

	"backoffice-service/internal/invoice"
	"backoffice-service/pkg/logger"
	"backoffice-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IssueInvoice issues a new invoice for an order. Calling it again issues a
// corrective invoice with the next number.
func IssueInvoice(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	var req invoice.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	inv, err := coordinator.IssueInvoice(c.Request().Context(), uint(id), req)
	if err != nil {
		if errors.Is(err, invoice.ErrInvalidTaxRate) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		}
		log.Error("Failed to issue invoice",
			zap.Uint64("order_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to issue invoice"})
	}

	prometheus.InvoicesIssuedCounter.Inc()
	return c.JSON(http.StatusCreated, inv)
}

// ListOrderInvoices returns the invoices issued for one order
func ListOrderInvoices(c echo.Context) error {
	log := logger.FromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid order id"})
	}

	invoices, err := issuer.ListByOrder(c.Request().Context(), uint(id))
	if err != nil {
		log.Error("Failed to list order invoices", zap.Uint64("order_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, invoices)
}

// ListInvoices returns all issued invoices in number order
func ListInvoices(c echo.Context) error {
	log := logger.FromContext(c)

	invoices, err := issuer.List(c.Request().Context())
	if err != nil {
		log.Error("Failed to list invoices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to retrieve invoices"})
	}

	return c.JSON(http.StatusOK, invoices)
}
