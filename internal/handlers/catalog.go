package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"retail-dashboard-api/internal/models"
	"retail-dashboard-api/internal/services"
)

const (
	productsBack   = "/v1/products"
	customersBack  = "/v1/customers"
	incentivesBack = "/v1/incentives"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// ListProducts handles GET /v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.products.Schema())
	if err != nil {
		writeServiceError(w, r, err, productsBack)
		return
	}
	resp, err := h.products.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, productsBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// GetProduct handles GET /v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, productsBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, product)
}

type CustomerHandler struct {
	customers *services.CustomerService
}

func NewCustomerHandler(customers *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customers: customers}
}

// ListCustomers handles GET /v1/customers
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.customers.Schema())
	if err != nil {
		writeServiceError(w, r, err, customersBack)
		return
	}
	resp, err := h.customers.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, customersBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// GetCustomer handles GET /v1/customers/{id}
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err, customersBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, customer)
}

type IncentiveHandler struct {
	incentives *services.IncentiveService
}

func NewIncentiveHandler(incentives *services.IncentiveService) *IncentiveHandler {
	return &IncentiveHandler{incentives: incentives}
}

// ListIncentives handles GET /v1/incentives
func (h *IncentiveHandler) ListIncentives(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r, h.incentives.Schema())
	if err != nil {
		writeServiceError(w, r, err, incentivesBack)
		return
	}
	resp, err := h.incentives.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, incentivesBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// ValidatePlan handles POST /v1/incentives/validate. The normalized plan is
// returned and never stored.
func (h *IncentiveHandler) ValidatePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.IncentivePlan
	if err := decodeJSON(r, &plan); err != nil {
		writeServiceError(w, r, err, incentivesBack)
		return
	}
	normalized, err := h.incentives.Validate(r.Context(), plan)
	if err != nil {
		writeServiceError(w, r, err, incentivesBack)
		return
	}
	writeJSONResponse(w, http.StatusOK, normalized)
}
