package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/internal/service"
)

// CatalogHandler — обработчик каталога и справочников.
type CatalogHandler struct {
	catalog service.CatalogService
}

// NewCatalogHandler создаёт обработчик каталога.
func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListTypes возвращает типы пакетов.
// GET /api/v1/catalog/types
func (h *CatalogHandler) ListTypes(c *gin.Context) {
	types, err := h.catalog.ListTypes(c.Request.Context())
	if err != nil {
		HandleError(c, err, "ListTypes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"types": types})
}

// ListSubtypes возвращает подтипы типа.
// GET /api/v1/catalog/types/:id/subtypes
func (h *CatalogHandler) ListSubtypes(c *gin.Context) {
	subtypes, err := h.catalog.ListSubtypes(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err, "ListSubtypes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subtypes": subtypes})
}

// SearchBags возвращает страницу товаров по фильтру.
// GET /api/v1/catalog/bags?type_id=&subtype_id=&min_width=&min_height=&sort=&page=&page_size=
func (h *CatalogHandler) SearchBags(c *gin.Context) {
	filter := domain.BagFilter{
		Sort:     c.Query("sort"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	if v := c.Query("type_id"); v != "" {
		filter.TypeID = &v
	}
	if v := c.Query("subtype_id"); v != "" {
		filter.SubtypeID = &v
	}
	if v := c.Query("min_width"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			BadRequest(c, err)
			return
		}
		filter.MinWidth = &d
	}
	if v := c.Query("min_height"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			BadRequest(c, err)
			return
		}
		filter.MinHeight = &d
	}

	bags, total, err := h.catalog.SearchBags(c.Request.Context(), filter)
	if err != nil {
		HandleError(c, err, "SearchBags")
		return
	}

	c.JSON(http.StatusOK, PageResponse{
		Items:    bags,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// BagDetailResponse — карточка товара с разрешённой ценой.
type BagDetailResponse struct {
	Bag     domain.Bag              `json:"bag"`
	Pricing *domain.PricingSnapshot `json:"pricing,omitempty"`
	Packs   []domain.PackTier       `json:"packs,omitempty"`
}

// GetBag возвращает карточку товара.
// GET /api/v1/catalog/bags/:id
func (h *CatalogHandler) GetBag(c *gin.Context) {
	detail, err := h.catalog.GetBag(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err, "GetBag")
		return
	}

	resp := BagDetailResponse{Bag: detail.Bag}
	if detail.Pricing != nil {
		snapshot := detail.Pricing.Snapshot()
		resp.Pricing = &snapshot
		resp.Packs = detail.Pricing.Packs
	}

	c.JSON(http.StatusOK, resp)
}

// ListDeliveryTypes возвращает способы доставки.
// GET /api/v1/catalog/delivery-types
func (h *CatalogHandler) ListDeliveryTypes(c *gin.Context) {
	types, err := h.catalog.ListDeliveryTypes(c.Request.Context())
	if err != nil {
		HandleError(c, err, "ListDeliveryTypes")
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_types": types})
}

// ListPaymentMethods возвращает способы оплаты.
// GET /api/v1/catalog/payment-methods
func (h *CatalogHandler) ListPaymentMethods(c *gin.Context) {
	methods, err := h.catalog.ListPaymentMethods(c.Request.Context())
	if err != nil {
		HandleError(c, err, "ListPaymentMethods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// ListOrderStatuses возвращает справочник статусов заказа.
// GET /api/v1/catalog/order-statuses
func (h *CatalogHandler) ListOrderStatuses(c *gin.Context) {
	statuses, err := h.catalog.ListOrderStatuses(c.Request.Context())
	if err != nil {
		HandleError(c, err, "ListOrderStatuses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}

// queryInt читает целочисленный query-параметр с дефолтом.
func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
