package dto

import "time"

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID           int64     `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	ProductName  string    `json:"product_name"`
	Quantity     int       `json:"quantity"`
	Price        string    `json:"price"`
	Total        string    `json:"total"`
	Status       string    `json:"status"`
	OrderDate    time.Time `json:"order_date"`
	UpdatedAt    time.Time `json:"updated_at"`
	Notes        string    `json:"notes"`
}

// OrderForm carries raw form input for create and edit submissions.
// Values stay as strings so invalid input can be echoed back into the form.
type OrderForm struct {
	OrderNumber  string `form:"order_number"`
	CustomerName string `form:"customer_name"`
	ProductName  string `form:"product_name"`
	Quantity     string `form:"quantity"`
	Price        string `form:"price"`
	Status       string `form:"status"`
	Notes        string `form:"notes"`
}

// StatusUpdateRequest is the JSON body of the status endpoint.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// StatusUpdateResponse is the JSON reply of the status endpoint.
type StatusUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
