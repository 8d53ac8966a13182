package models

// PriceTick is a raw market-price observation as it arrives from the feed.
// Timestamp is unix seconds.
type PriceTick struct {
	CommodityID string  `json:"commodity_id"`
	Timestamp   int64   `json:"t"`
	Price       float64 `json:"price"`
}
