package models

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
	Back    string        `json:"back,omitempty"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Pagination describes the page returned by a list endpoint
type Pagination struct {
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalItems int    `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
	NextPage   int    `json:"nextPage,omitempty"`
	PrevPage   int    `json:"prevPage,omitempty"`
	FilterKey  string `json:"filterKey"`
}

// ListResponse wraps one page of a filtered, sorted collection
type ListResponse[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Event represents an entry in the activity feed
type Event struct {
	Offset     int64             `json:"offset"`
	Timestamp  string            `json:"timestamp"`
	EventType  string            `json:"eventType"`
	EntityType string            `json:"entityType"`
	EntityID   string            `json:"entityId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// EventsResponse represents the response for the events endpoint
type EventsResponse struct {
	Events     []Event `json:"events"`
	NextOffset int64   `json:"nextOffset"`
	HasMore    bool    `json:"hasMore"`
	Count      int     `json:"count"`
}

// EventType constants
const (
	EventTypeOrderSplit           = "order_split"
	EventTypeOrderMerged          = "order_merged"
	EventTypeInventoryAdjusted    = "inventory_adjusted"
	EventTypeInventoryTransferred = "inventory_transferred"
	EventTypeChannelSyncStarted   = "channel_sync_started"
	EventTypeChannelSyncCompleted = "channel_sync_completed"
	EventTypeChannelSyncCancelled = "channel_sync_cancelled"
)

// Entity type names carried on events
const (
	EntityOrder     = "order"
	EntityInventory = "inventory"
	EntityChannel   = "channel"
)
