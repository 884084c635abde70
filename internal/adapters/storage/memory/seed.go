package memory

import (
	"context"
	"fmt"
	"time"

	"pet-adoption-marketplace/internal/domain/cart"
	"pet-adoption-marketplace/internal/domain/pets"
	"pet-adoption-marketplace/internal/domain/shelters"
)

// Seed carga un catálogo mínimo para dev (sin DB_DSN). IDs fijos para que
// los ejemplos de curl sirvan entre reinicios.
func Seed(ctx context.Context, sh shelters.Repository, pr pets.Repository, products cart.ProductRepository, now time.Time) error {
	for _, s := range seedShelters(now) {
		if err := sh.Create(ctx, s); err != nil {
			return fmt.Errorf("seed shelter %s: %w", s.ID, err)
		}
	}
	for i, p := range seedPets() {
		p.CreatedAt = now.Add(-time.Duration(i) * time.Hour)
		p.UpdatedAt = p.CreatedAt
		if err := pr.Create(ctx, p); err != nil {
			return fmt.Errorf("seed pet %s: %w", p.ID, err)
		}
	}
	for _, p := range seedProducts(now) {
		if err := products.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return nil
}

func seedShelters(now time.Time) []shelters.Shelter {
	return []shelters.Shelter{
		{
			ID:          "shelter-happy-paws",
			Name:        "Happy Paws Rescue",
			Address:     "120 Market St",
			City:        "San Francisco",
			State:       "CA",
			ZipCode:     "94105",
			PhoneNumber: "(415) 555-0134",
			Email:       "hello@happypaws.example",
			Description: "Rescate de perros y gatos desde 2009.",
			Location:    shelters.Location{Lat: 37.7936, Lng: -122.3965},
			Hours:       map[string]string{"monday": "9:00-17:00", "saturday": "10:00-14:00"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          "shelter-second-chance",
			Name:        "Second Chance Shelter",
			Address:     "48 Oak Ave",
			City:        "Oakland",
			State:       "CA",
			ZipCode:     "94607",
			PhoneNumber: "(510) 555-0190",
			Location:    shelters.Location{Lat: 37.8044, Lng: -122.2712},
			Hours:       map[string]string{"tuesday": "11:00-18:00"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func seedPets() []pets.Pet {
	return []pets.Pet{
		{
			ID: "pet-luna", ShelterID: "shelter-happy-paws",
			Name: "Luna", Species: pets.SpeciesDog, Breed: "Labrador Mix", Age: 2,
			Size: pets.SizeLarge, Gender: pets.GenderFemale,
			Description:  "Juguetona, ama el agua.",
			HealthStatus: "healthy",
			Vaccinated:   true, Neutered: true, Microchipped: true, HouseTrained: true,
			GoodWith:      pets.GoodWith{Kids: true, Dogs: true},
			ActivityLevel: pets.ActivityHigh,
		},
		{
			ID: "pet-michi", ShelterID: "shelter-happy-paws",
			Name: "Michi", Species: pets.SpeciesCat, Breed: "Domestic Shorthair", Age: 4,
			Size: pets.SizeSmall, Gender: pets.GenderMale,
			HealthStatus:  "healthy",
			Vaccinated:    true,
			GoodWith:      pets.GoodWith{Cats: true},
			ActivityLevel: pets.ActivityLow,
		},
		{
			ID: "pet-kiwi", ShelterID: "shelter-second-chance",
			Name: "Kiwi", Species: pets.SpeciesBird, Breed: "Cockatiel", Age: 1,
			Size: pets.SizeSmall, Gender: pets.GenderFemale,
			ActivityLevel: pets.ActivityMedium,
		},
	}
}

func seedProducts(now time.Time) []cart.Product {
	return []cart.Product{
		{ID: "prod-kibble", Name: "Premium Kibble 5kg", Category: cart.CategoryFood, PetType: "dog", PriceCents: 3499, Stock: 40, CreatedAt: now},
		{ID: "prod-feather-wand", Name: "Feather Wand", Category: cart.CategoryToys, PetType: "cat", PriceCents: 899, SalePriceCents: 699, Stock: 25, CreatedAt: now},
		{ID: "prod-leash", Name: "Reflective Leash", Category: cart.CategoryAccessories, PetType: "dog", PriceCents: 1999, Stock: 12, CreatedAt: now},
		{ID: "prod-flea-drops", Name: "Flea Drops", Category: cart.CategoryHealth, PetType: "all", PriceCents: 2450, Stock: 30, CreatedAt: now},
	}
}
