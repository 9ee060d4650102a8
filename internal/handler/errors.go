// Package handler содержит HTTP обработчики REST API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/pkg/logger"
)

// ErrorResponse — стандартный формат ошибки API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// httpMapping — соответствие доменной ошибки HTTP статусу и коду API.
type httpMapping struct {
	status int
	code   string
}

var errorMappings = []struct {
	err     error
	mapping httpMapping
}{
	{domain.ErrBagNotFound, httpMapping{http.StatusNotFound, "bag_not_found"}},
	{domain.ErrNoPricingRule, httpMapping{http.StatusConflict, "pricing_not_configured"}},
	{domain.ErrNoActiveCart, httpMapping{http.StatusBadRequest, "no_active_cart"}},
	{domain.ErrCartEmpty, httpMapping{http.StatusBadRequest, "cart_empty"}},
	{domain.ErrCartLineNotFound, httpMapping{http.StatusNotFound, "cart_line_not_found"}},
	{domain.ErrInvalidQuantity, httpMapping{http.StatusBadRequest, "invalid_quantity"}},
	{domain.ErrOrderNotFound, httpMapping{http.StatusNotFound, "order_not_found"}},
	{domain.ErrOrderLineNotFound, httpMapping{http.StatusNotFound, "order_line_not_found"}},
	{domain.ErrLineNotWeighable, httpMapping{http.StatusConflict, "line_not_weighable"}},
	{domain.ErrLineMissingKgPrice, httpMapping{http.StatusConflict, "line_missing_kg_price"}},
	{domain.ErrInvalidWeight, httpMapping{http.StatusBadRequest, "invalid_weight"}},
	{domain.ErrWeightExceedsMax, httpMapping{http.StatusConflict, "weight_exceeds_max"}},
	{domain.ErrNoInitialStatus, httpMapping{http.StatusConflict, "statuses_not_configured"}},
	{domain.ErrStatusNotFound, httpMapping{http.StatusNotFound, "status_not_found"}},
	{domain.ErrUserNotFound, httpMapping{http.StatusNotFound, "user_not_found"}},
	{domain.ErrEmailExists, httpMapping{http.StatusConflict, "email_exists"}},
	{domain.ErrInvalidCredentials, httpMapping{http.StatusUnauthorized, "invalid_credentials"}},
	{domain.ErrWeakPassword, httpMapping{http.StatusBadRequest, "weak_password"}},
	{domain.ErrResetTokenInvalid, httpMapping{http.StatusBadRequest, "reset_token_invalid"}},
	{domain.ErrResetTokenUsed, httpMapping{http.StatusConflict, "reset_token_used"}},
	{domain.ErrResetTokenExpired, httpMapping{http.StatusGone, "reset_token_expired"}},
	{domain.ErrAddressNotFound, httpMapping{http.StatusNotFound, "address_not_found"}},
	{domain.ErrReceiptNotFound, httpMapping{http.StatusNotFound, "receipt_not_found"}},
	{domain.ErrInvalidReceiptState, httpMapping{http.StatusConflict, "receipt_already_reviewed"}},
	{domain.ErrForbidden, httpMapping{http.StatusForbidden, "forbidden"}},
}

// HandleError преобразует доменную ошибку в HTTP ответ.
// Неизвестные ошибки логируются и возвращаются как 500 без деталей.
func HandleError(c *gin.Context, err error, method string) {
	log := logger.FromContext(c.Request.Context())

	if err == nil {
		log.Error().Str("method", method).Msg("HandleError вызван с nil ошибкой")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			c.JSON(m.mapping.status, ErrorResponse{
				Error:   m.mapping.code,
				Message: err.Error(),
			})
			return
		}
	}

	log.Error().Err(err).Str("method", method).Msg("Внутренняя ошибка")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Внутренняя ошибка сервера",
	})
}

// BadRequest возвращает 400 с сообщением об ошибке валидации.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}
