package models

// StorefrontConnection — подключение магазина продавца к платформе.
type StorefrontConnection struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
	Platform     string `json:"platform"`
	Status       string `json:"status"`
	SellerName   string `json:"sellerName"`
	ShopID       string `json:"shopId"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}
