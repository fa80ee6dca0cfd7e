package fakeapi

import "github.com/atinyakov/grocerease/internal/models"

// DemoSeed is a small grocery catalog used by the shell's demo mode.
func DemoSeed() Seed {
	return Seed{
		Users: []models.User{
			{ID: "1", Name: "Demo Shopper", Email: "demo@grocerease.test", Password: "demo", Joined: "1 January 2026"},
		},
		Categories: []models.Category{
			{ID: "1", Name: "Fruits"},
			{ID: "2", Name: "Dairy"},
			{ID: "3", Name: "Bakery"},
		},
		Products: []models.Product{
			{ID: "1", Name: "Bananas", Price: 1.20, Category: "Fruits"},
			{ID: "2", Name: "Apples", Price: 2.50, Category: "Fruits"},
			{ID: "3", Name: "Whole Milk", Price: 0.99, Category: "Dairy"},
			{ID: "4", Name: "Cheddar", Price: 4.75, Category: "Dairy"},
			{ID: "5", Name: "Sourdough", Price: 3.40, Category: "Bakery"},
		},
	}
}
