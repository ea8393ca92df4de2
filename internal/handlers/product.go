package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/mykafka"
	"github.com/petshop/server/internal/store"
)

type ProductHandler struct {
	Store    store.Store
	ES       *elasticsearch.Client
	Index    string
	Producer *mykafka.Producer
}

type productRequest struct {
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	OriginPrice int      `json:"origin_price"`
	Price       int      `json:"price"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	IsEnabled   bool     `json:"is_enabled"`
	Sales       int      `json:"sales"`
	Stock       int      `json:"stock"`
	ImgURLs     []string `json:"img_urls"`
}

func (r *productRequest) validate() string {
	switch {
	case r.Title == "":
		return "title is required"
	case r.Category == "":
		return "category is required"
	case r.OriginPrice < 0 || r.Price < 0:
		return "price must not be negative"
	case r.Unit == "":
		return "unit is required"
	case r.Sales < 0 || r.Stock < 0:
		return "sales and stock must not be negative"
	}
	return ""
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: msg})
	}

	product := &models.Product{
		Title:       req.Title,
		Category:    req.Category,
		OriginPrice: req.OriginPrice,
		Price:       req.Price,
		Unit:        req.Unit,
		Description: req.Description,
		Content:     req.Content,
		IsEnabled:   req.IsEnabled,
		Sales:       req.Sales,
		Stock:       req.Stock,
		ImgURLs:     req.ImgURLs,
		CreatedAt:   time.Now().UnixMilli(),
	}
	id, err := h.Store.AddProduct(c.Request().Context(), product)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	product.ID = id

	h.index(c, product)
	publish(c, h.Producer, "product_events", id, map[string]any{
		"type": "product_created", "id": id, "title": product.Title,
	})
	return c.JSON(http.StatusOK, Response{Success: true, Message: "product added"})
}

func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.Store.GetProducts(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "products": products})
}

func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.Store.GetProduct(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "product": product})
}

func (h *ProductHandler) Patch(c echo.Context) error {
	id := c.Param("id")
	fields := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
	}
	delete(fields, "id")
	delete(fields, "created_at")

	err := h.Store.UpdateProduct(c.Request().Context(), id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}

	if product, err := h.Store.GetProduct(c.Request().Context(), id); err == nil {
		h.index(c, product)
	}
	publish(c, h.Producer, "product_events", id, map[string]any{
		"type": "product_updated", "id": id,
	})
	return c.JSON(http.StatusOK, Response{Success: true, Message: "product updated"})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	err := h.Store.DeleteProduct(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "product not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}

	h.deindex(c, id)
	publish(c, h.Producer, "product_events", id, map[string]any{
		"type": "product_deleted", "id": id,
	})
	return c.JSON(http.StatusOK, Response{Success: true, Message: "product deleted"})
}

func (h *ProductHandler) index(c echo.Context, product *models.Product) {
	if h.ES == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		c.Logger().Errorf("ES marshal error: %v", err)
		return
	}
	res, err := h.ES.Index(h.Index, bytes.NewReader(data),
		h.ES.Index.WithDocumentID(product.ID),
		h.ES.Index.WithContext(c.Request().Context()),
	)
	if err != nil {
		c.Logger().Errorf("ES index error: %v", err)
		return
	}
	defer res.Body.Close()
}

func (h *ProductHandler) deindex(c echo.Context, id string) {
	if h.ES == nil {
		return
	}
	res, err := h.ES.Delete(h.Index, id, h.ES.Delete.WithContext(c.Request().Context()))
	if err != nil {
		c.Logger().Errorf("ES delete error: %v", err)
		return
	}
	defer res.Body.Close()
}
