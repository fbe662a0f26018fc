package service

import (
	"github.com/evercare/companion/pkg/entity"
)

// Static reward definitions. Costs are coins; one coin is earned per
// daily check-in.
var catalogItems = []entity.CatalogItem{
	{
		ID:    "tea_set",
		Title: "Herbal tea gift set",
		Terms: "Show the code at any partner pharmacy. Valid 90 days from redemption.",
		Cost:  7,
		Icon:  "tea",
	},
	{
		ID:    "pharmacy_discount",
		Title: "10% pharmacy discount",
		Terms: "One purchase at partner pharmacies. Not combinable with other offers.",
		Cost:  10,
		Icon:  "pharmacy",
	},
	{
		ID:    "grocery_coupon",
		Title: "Grocery delivery coupon",
		Terms: "Applies to the next grocery delivery order above the minimum amount.",
		Cost:  15,
		Icon:  "grocery",
	},
	{
		ID:    "phone_topup",
		Title: "Mobile top-up",
		Terms: "Credited to the phone number on the account within 48 hours.",
		Cost:  20,
		Icon:  "phone",
	},
}

func lookupCatalogItem(id string) (*entity.CatalogItem, bool) {
	for i := range catalogItems {
		if catalogItems[i].ID == id {
			return &catalogItems[i], true
		}
	}
	return nil, false
}
