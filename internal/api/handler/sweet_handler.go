package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// SweetHandler handles HTTP requests for inventory operations.
type SweetHandler struct {
	service ports.SweetService
}

func NewSweetHandler(service ports.SweetService) *SweetHandler {
	return &SweetHandler{service: service}
}

// Create handles POST /api/sweets.
//
// @Summary      Add a sweet to the inventory
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSweetRequest  true  "Sweet details"
// @Success      201   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/sweets [post]
func (h *SweetHandler) Create(c echo.Context) error {
	var req createSweetRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	sweet, err := h.service.Create(c.Request().Context(), toCreateInput(req, ctxUserID(c)))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, sweet)
}

// List handles GET /api/sweets.
//
// @Summary      List all sweets
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Sweet
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/sweets [get]
func (h *SweetHandler) List(c echo.Context) error {
	sweets, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(sweets))
}

// Get handles GET /api/sweets/:id.
//
// @Summary      Get a sweet by id
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sweet id"
// @Success      200  {object}  domain.Sweet
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/sweets/{id} [get]
func (h *SweetHandler) Get(c echo.Context) error {
	sweet, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Search handles GET /api/sweets/search.
//
// @Summary      Search sweets
// @Description  name matches case-insensitively anywhere in the name, category matches exactly,
// @Description  priceRange is "min-max" and either side may be omitted.
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        name        query     string  false  "Name substring"
// @Param        category    query     string  false  "Exact category"
// @Param        priceRange  query     string  false  "Price range, e.g. 1-5"
// @Success      200         {array}   domain.Sweet
// @Failure      401         {object}  errorResponse
// @Router       /api/sweets/search [get]
func (h *SweetHandler) Search(c echo.Context) error {
	sweets, err := h.service.Search(c.Request().Context(), ports.SearchSweetsInput{
		Name:       c.QueryParam("name"),
		Category:   c.QueryParam("category"),
		PriceRange: c.QueryParam("priceRange"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, nonNil(sweets))
}

// Update handles PUT /api/sweets/:id.
//
// @Summary      Update a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Sweet id"
// @Param        body  body      updateSweetRequest  true  "Fields to change"
// @Success      200   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id} [put]
func (h *SweetHandler) Update(c echo.Context) error {
	var req updateSweetRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	sweet, err := h.service.Update(c.Request().Context(), toUpdateInput(c.Param("id"), req, ctxUserID(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Delete handles DELETE /api/sweets/:id.
//
// @Summary      Delete a sweet
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Sweet id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/sweets/{id} [delete]
func (h *SweetHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), c.Param("id"), ctxUserID(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Sweet deleted"})
}

// Purchase handles POST /api/sweets/:id/purchase.
//
// @Summary      Purchase units of a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Sweet id"
// @Param        body  body      purchaseRequest  true  "Units to buy"
// @Success      200   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id}/purchase [post]
func (h *SweetHandler) Purchase(c echo.Context) error {
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	sweet, err := h.service.Purchase(c.Request().Context(), toStockChangeInput(c.Param("id"), req.Quantity, ctxUserID(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Restock handles POST /api/sweets/:id/restock.
//
// @Summary      Restock a sweet
// @Tags         sweets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Sweet id"
// @Param        body  body      restockRequest  true  "Units to add"
// @Success      200   {object}  domain.Sweet
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/sweets/{id}/restock [post]
func (h *SweetHandler) Restock(c echo.Context) error {
	var req restockRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload()
	}

	sweet, err := h.service.Restock(c.Request().Context(), toStockChangeInput(c.Param("id"), req.Amount, ctxUserID(c)))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sweet)
}

// Movements handles GET /api/sweets/:id/movements.
//
// @Summary      Stock movement history
// @Tags         sweets
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string   true   "Sweet id"
// @Param        limit  query     integer  false  "Maximum entries (default 50, max 200)"
// @Success      200    {array}   domain.StockMovement
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /api/sweets/{id}/movements [get]
func (h *SweetHandler) Movements(c echo.Context) error {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return domain.Invalid("Limit must be an integer.")
	}

	movements, err := h.service.Movements(c.Request().Context(), c.Param("id"), limit)
	if err != nil {
		return err
	}
	if movements == nil {
		movements = []*domain.StockMovement{}
	}
	return c.JSON(http.StatusOK, movements)
}

func nonNil(sweets []*domain.Sweet) []*domain.Sweet {
	if sweets == nil {
		return []*domain.Sweet{}
	}
	return sweets
}
