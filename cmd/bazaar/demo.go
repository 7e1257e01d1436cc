package main

import (
	"math/big"

	"github.com/Veraticus/campus-bazaar/internal/amount"
	"github.com/Veraticus/campus-bazaar/internal/model"
)

const (
	demoNetwork  = "31337"
	demoAccount  = "0x00000000000000000000000000000000000De300"
	demoNeighbor = "0x000000000000000000000000000000000000Fe11"
)

// demoListings seeds the in-process ledger used by --demo.
func demoListings() []model.Listing {
	return []model.Listing{
		{
			ID: 1, Owner: demoNeighbor, Title: "Intro to Algorithms", Description: "3rd edition, some highlighting",
			Category: "books", Location: "Main library", Type: model.ListingTypeSell,
			PriceMinorUnits: demoPrice("0.02"), IsAvailable: true, CreatedAt: 1717200000,
		},
		{
			ID: 2, Owner: demoNeighbor, Title: "Mountain bike", Description: "Helmet included (Rent price per day)",
			Category: "vehicles", Location: "East dorm", Type: model.ListingTypeRent,
			PriceMinorUnits: demoPrice("0.005"), IsAvailable: true, CreatedAt: 1717300000,
		},
		{
			ID: 3, Owner: demoAccount, Title: "Desk lamp", Description: "LED, three brightness levels",
			Category: "furniture", Location: "West dorm", Type: model.ListingTypeSell,
			PriceMinorUnits: demoPrice("0.01"), IsAvailable: true, CreatedAt: 1717400000,
		},
		{
			ID: 4, Owner: demoNeighbor, Title: "Acoustic guitar", Description: "Comes with a soft case (Rent price per week)",
			Category: "instruments", Location: "Music building", Type: model.ListingTypeRent,
			PriceMinorUnits: demoPrice("0.015"), IsAvailable: false, CreatedAt: 1717500000,
		},
		{
			ID: 5, Owner: demoAccount, Title: "Scientific calculator", Description: "",
			Category: "electronics", Location: "", Type: model.ListingTypeRent,
			PriceMinorUnits: demoPrice("0.001"), IsAvailable: true, CreatedAt: 1717600000,
		},
	}
}

func demoPrice(s string) *big.Int {
	v, err := amount.ParseMinorUnits(s)
	if err != nil {
		panic(err)
	}
	return v
}
