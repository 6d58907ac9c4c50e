// Package console exposes one typed client per screen of the OrderNow
// restaurant console — orders, menu, tables, bookings, fleet, marketing,
// settings and stats — all routed through the gateway and kept consistent
// by the view cache. Screens never touch HTTP or cache internals; they
// subscribe to a client's key and call its mutation methods.
package console

import "time"

// Pricing is the money breakdown of an order.
type Pricing struct {
	TotalAmount    float64 `json:"totalAmount"`
	Subtotal       float64 `json:"subtotal"`
	HandlingCharge float64 `json:"handlingCharge"`
	DeliveryFee    float64 `json:"deliveryFee"`
	DiscountAmount float64 `json:"discountAmount"`
}

// OrderedItem is one line of an order.
type OrderedItem struct {
	ItemName         string   `json:"itemName"`
	Quantity         int      `json:"quantity"`
	ItemTotal        float64  `json:"itemTotal"`
	SelectedVariants []string `json:"selectedVariants"`
	SelectedAddons   []string `json:"selectedAddons"`
}

// CustomerDetails identifies the ordering customer.
type CustomerDetails struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
}

// DeliveryAddress is the order's destination.
type DeliveryAddress struct {
	FullAddress string `json:"fullAddress"`
}

// Order mirrors the backend order document.
type Order struct {
	ID               string          `json:"_id"`
	OrderNumber      string          `json:"orderNumber"`
	PaymentType      string          `json:"paymentType"`
	PaymentStatus    string          `json:"paymentStatus"`
	CreatedAt        time.Time       `json:"createdAt"`
	Pricing          Pricing         `json:"pricing"`
	CustomerDetails  CustomerDetails `json:"customerDetails"`
	DeliveryAddress  DeliveryAddress `json:"deliveryAddress"`
	OrderedItems     []OrderedItem   `json:"orderedItems"`
	Status           string          `json:"status"`
	AcceptanceStatus string          `json:"acceptanceStatus"`
}

// MenuItem mirrors the backend menu item document.
type MenuItem struct {
	ID              string  `json:"_id"`
	ItemName        string  `json:"itemName"`
	Description     string  `json:"description"`
	BasePrice       float64 `json:"basePrice"`
	ItemType        string  `json:"itemType"`
	IsFood          bool    `json:"isFood"`
	IsAvailable     bool    `json:"isAvailable"`
	DisplayImageURL *string `json:"displayImageUrl"`
}

// Table is one dining table.
type Table struct {
	ID          string `json:"_id"`
	TableNumber string `json:"tableNumber"`
	Capacity    int    `json:"capacity"`
	Area        string `json:"area"`
	IsActive    bool   `json:"isActive"`
}

// TableInput is the write shape for creating or updating a table.
type TableInput struct {
	TableNumber string `json:"tableNumber"`
	Capacity    int    `json:"capacity"`
	Area        string `json:"area"`
}

// BookingTable is the populated table reference on a booking.
type BookingTable struct {
	TableNumber string `json:"tableNumber"`
}

// BookingCustomer is the populated customer reference on a booking.
type BookingCustomer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Booking is one table reservation.
type Booking struct {
	ID            string          `json:"_id"`
	BookingNumber string          `json:"bookingNumber"`
	BookingDate   time.Time       `json:"bookingDate"`
	Guests        int             `json:"guests"`
	Status        string          `json:"status"`
	Table         BookingTable    `json:"tableId"`
	Customer      BookingCustomer `json:"customerId"`
}

// PartnerProfile is the delivery-specific part of a partner record.
type PartnerProfile struct {
	IsAvailable bool    `json:"isAvailable"`
	VehicleType string  `json:"vehicleType"`
	Rating      float64 `json:"rating"`
}

// DeliveryPartner is one fleet member.
type DeliveryPartner struct {
	ID          string         `json:"_id"`
	FullName    string         `json:"fullName"`
	Email       string         `json:"email"`
	PhoneNumber string         `json:"phoneNumber"`
	Profile     PartnerProfile `json:"deliveryPartnerProfile"`
}

// PartnerInput is the write shape for onboarding a delivery partner.
type PartnerInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	VehicleType string `json:"vehicleType,omitempty"`
}

// Announcement is one marketing campaign entry.
type Announcement struct {
	ID               string `json:"_id"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	AnnouncementType string `json:"announcementType"`
	IsActive         bool   `json:"isActive"`
	ReactionCount    int    `json:"reactionCount"`
}

// AnnouncementStats summarizes campaign engagement.
type AnnouncementStats struct {
	TotalReactions            int     `json:"totalReactions"`
	ReactionsInLast24h        int     `json:"reactionsInLast24h"`
	PercentageChangeInLast24h float64 `json:"percentageChangeInLast24h"`
}

// DeliverySettings is the delivery-pricing section of the profile.
type DeliverySettings struct {
	FreeDeliveryRadius float64 `json:"freeDeliveryRadius"`
	ChargePerMile      float64 `json:"chargePerMile"`
	MaxDeliveryRadius  float64 `json:"maxDeliveryRadius"`
}

// RestaurantProfile mirrors the backend restaurant document.
type RestaurantProfile struct {
	RestaurantName            string           `json:"restaurantName"`
	OwnerFullName             string           `json:"ownerFullName"`
	PhoneNumber               string           `json:"phoneNumber"`
	IsActive                  bool             `json:"isActive"`
	HandlingChargesPercentage float64          `json:"handlingChargesPercentage"`
	DeliverySettings          DeliverySettings `json:"deliverySettings"`
	AcceptsDining             bool             `json:"acceptsDining"`
}

// ProfileInput is the write shape for PUT /restaurants/profile.
type ProfileInput struct {
	RestaurantName string `json:"restaurantName"`
	OwnerFullName  string `json:"ownerFullName"`
	PhoneNumber    string `json:"phoneNumber"`
}

// SettingsInput is the write shape for PUT /restaurants/settings.
type SettingsInput struct {
	HandlingChargesPercentage float64          `json:"handlingChargesPercentage"`
	DeliverySettings          DeliverySettings `json:"deliverySettings"`
	AcceptsDining             bool             `json:"acceptsDining"`
}

// MonthlyIncome is one bucket of the income-by-month series.
type MonthlyIncome struct {
	Month       MonthBucket `json:"_id"`
	TotalIncome float64     `json:"totalIncome"`
}

// MonthBucket is the aggregation key of a monthly series.
type MonthBucket struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// StatDelta compares a metric against the previous period.
type StatDelta struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

// OrderStats is the dashboard statistics document.
type OrderStats struct {
	Overall struct {
		TotalOrders    int     `json:"totalOrders"`
		TotalDelivered int     `json:"totalDelivered"`
		TotalCancelled int     `json:"totalCancelled"`
		TotalIncome    float64 `json:"totalIncome"`
	} `json:"overall"`
	Comparison struct {
		Income StatDelta `json:"income"`
		Orders StatDelta `json:"orders"`
	} `json:"comparison"`
	MonthlyIncome []MonthlyIncome `json:"monthlyIncome"`
}
