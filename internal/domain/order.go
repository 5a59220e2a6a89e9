package domain

import "strings"

// OrderItem is one line of a kitchen order. The flavor may arrive under a
// handful of different field names depending on which upstream produced the
// payload; Flavor() resolves them in a fixed preference order.
type OrderItem struct {
	ItemID     FlexString `json:"item_id"`
	ID         FlexString `json:"id"`
	MenuName   string     `json:"menu_name"`
	Quantity   FlexInt    `json:"quantity"`
	Preference string     `json:"preference"`
	Notes      string     `json:"notes"`

	FlavorField string `json:"flavor"`
	Rasa        string `json:"rasa"`
	Flavour     string `json:"flavour"`
	Variant     string `json:"variant"`
	Variation   string `json:"variation"`
	Taste       string `json:"taste"`
}

// Flavor returns the raw flavor value from whichever alias field is set.
func (it OrderItem) Flavor() string {
	for _, v := range []string{it.FlavorField, it.Rasa, it.Flavour, it.Variant, it.Variation, it.Taste} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ChosenFlavor resolves the display flavor for an item: the explicit
// preference wins, then any flavor alias field. Empty means no flavor.
func (it OrderItem) ChosenFlavor() string {
	if p := strings.TrimSpace(it.Preference); p != "" {
		return p
	}
	return strings.TrimSpace(it.Flavor())
}

// KitchenOrder is an order as the kitchen service reports it.
type KitchenOrder struct {
	OrderID      string      `json:"order_id"`
	QueueNumber  FlexString  `json:"queue_number"`
	CustomerName string      `json:"customer_name"`
	RoomName     string      `json:"room_name"`
	Status       string      `json:"status"`
	Detail       string      `json:"detail"`
	TimeReceive  string      `json:"time_receive"`
	TimeDone     string      `json:"time_done"`
	Items        []OrderItem `json:"items"`
}

// RecipeLine maps one ingredient requirement of a menu.
type RecipeLine struct {
	IngredientID FlexString `json:"ingredient_id"`
	Quantity     float64    `json:"quantity"`
	Unit         string     `json:"unit"`
}

// Ingredient is an inventory item.
type Ingredient struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
	Unit string     `json:"unit"`
}

// FlavorMapping is one additive ingredient consumption line for a flavor.
type FlavorMapping struct {
	IngredientID       FlexString `json:"ingredient_id"`
	QuantityPerServing float64    `json:"quantity_per_serving"`
	Unit               string     `json:"unit"`
}

// ConsumptionLog is one inventory-history row for an order.
type ConsumptionLog struct {
	OrderID            string  `json:"order_id"`
	Date               string  `json:"date"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
	Timestamp          string  `json:"timestamp"`
	Time               string  `json:"time"`
	TimeDone           string  `json:"time_done"`
	TimeReceive        string  `json:"time_receive"`
	IngredientsAffected FlexInt `json:"ingredients_affected"`
}

// SalesTransaction is one raw financial-sales row from the report service.
type SalesTransaction struct {
	MenuName   string  `json:"menu_name"`
	Flavor     string  `json:"flavor"`
	Quantity   FlexInt `json:"quantity"`
	BasePrice  float64 `json:"base_price"`
	TotalPrice float64 `json:"total_price"`
}
