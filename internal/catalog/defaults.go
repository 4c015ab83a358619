package catalog

import "github.com/susu3304/snacknav/internal/geoscore"

// Default returns the built-in demo catalog centred on central London.
func Default() *Catalog {
	c, err := New(defaultPlaces(), defaultTasks(), defaultRewards(), defaultCities())
	if err != nil {
		panic("catalog: built-in data is invalid: " + err.Error())
	}
	return c
}

func defaultPlaces() []Place {
	return []Place{
		{ID: "1", Name: "Artisan Pizza Co.", Coords: geoscore.Coord{Lat: 51.505, Lng: -0.09}, Category: CategoryRestaurant, Icon: "🍕"},
		{ID: "2", Name: "Golden Donut House", Coords: geoscore.Coord{Lat: 51.51, Lng: -0.1}, Category: CategoryCafe, Icon: "🍩"},
		{ID: "3", Name: "Fresh Garden Salads", Coords: geoscore.Coord{Lat: 51.507, Lng: -0.08}, Category: CategoryRestaurant, Icon: "🥗"},
		{ID: "4", Name: "Brew & Bean Cafe", Coords: geoscore.Coord{Lat: 51.503, Lng: -0.095}, Category: CategoryCafe, Icon: "☕"},
		{ID: "5", Name: "Healthy Bites", Coords: geoscore.Coord{Lat: 51.506, Lng: -0.085}, Category: CategoryRestaurant, Icon: "🥙"},
		{ID: "6", Name: "Borough Corner Market", Coords: geoscore.Coord{Lat: 51.5055, Lng: -0.091}, Category: CategoryShop, Icon: "🛒"},
	}
}

func defaultTasks() []Task {
	return []Task{
		{ID: "t1", Name: "Pizza Powerwalk", Description: "Walk to Artisan Pizza Co. for a free slice", Calories: 220, Steps: 2800, PlaceID: "1", Icon: "🍕"},
		{ID: "t2", Name: "Donut Dash", Description: "Earn your glaze at Golden Donut House", Calories: 180, Steps: 2300, PlaceID: "2", Icon: "🍩"},
		{ID: "t3", Name: "Green Mile", Description: "A brisk walk to Fresh Garden Salads", Calories: 150, Steps: 1900, PlaceID: "3", Icon: "🥗"},
		{ID: "t4", Name: "Espresso Stroll", Description: "Stroll over to Brew & Bean Cafe", Calories: 120, Steps: 1500, PlaceID: "4", Icon: "☕"},
		{ID: "t5", Name: "Bite-Sized Hike", Description: "Hike to Healthy Bites", Calories: 200, Steps: 2500, PlaceID: "5", Icon: "🥙"},
		{ID: "t6", Name: "Market Loop", Description: "Loop round Borough Corner Market", Calories: 90, Steps: 1100, PlaceID: "6", Icon: "🛒"},
	}
}

func defaultRewards() []Reward {
	return []Reward{
		{ID: "1", Name: "Artisan Donut", Cost: 500, Icon: "🍩", Kind: KindNearby, Brand: "Golden Donut House", Description: "Fresh glazed from Golden Donut House"},
		{ID: "2", Name: "Premium Iced Tea", Cost: 500, Icon: "🧋", Kind: KindNearby, Description: "Refreshing bubble tea with toppings"},
		{ID: "3", Name: "Power Salad Bowl", Cost: 700, Icon: "🥗", Kind: KindHealthy, Brand: "Fresh Garden Salads", Description: "Nutrient-packed superfood salad"},
		{ID: "4", Name: "Limited Edition Tee", Cost: 1000, Icon: "👕", Kind: KindPremium, Brand: "SnackNav", Description: "Exclusive SnackNav merchandise"},
		{ID: "5", Name: "Protein Smoothie", Cost: 600, Icon: "🥤", Kind: KindHealthy, Description: "Post-workout recovery blend"},
		{ID: "6", Name: "Gourmet Coffee", Cost: 400, Icon: "☕", Kind: KindNearby, Brand: "Brew & Bean Cafe", Description: "Single-origin specialty brew"},
	}
}

func defaultCities() []City {
	return []City{
		{Name: "London, United Kingdom", Coords: geoscore.Coord{Lat: 51.5074, Lng: -0.1278}},
		{Name: "Paris, France", Coords: geoscore.Coord{Lat: 48.8566, Lng: 2.3522}},
		{Name: "New York, United States", Coords: geoscore.Coord{Lat: 40.7128, Lng: -74.006}},
		{Name: "Tokyo, Japan", Coords: geoscore.Coord{Lat: 35.6762, Lng: 139.6503}},
		{Name: "Berlin, Germany", Coords: geoscore.Coord{Lat: 52.52, Lng: 13.405}},
		{Name: "Sydney, Australia", Coords: geoscore.Coord{Lat: -33.8688, Lng: 151.2093}},
		{Name: "Toronto, Canada", Coords: geoscore.Coord{Lat: 43.6532, Lng: -79.3832}},
		{Name: "Madrid, Spain", Coords: geoscore.Coord{Lat: 40.4168, Lng: -3.7038}},
		{Name: "Rome, Italy", Coords: geoscore.Coord{Lat: 41.9028, Lng: 12.4964}},
		{Name: "Amsterdam, Netherlands", Coords: geoscore.Coord{Lat: 52.3676, Lng: 4.9041}},
		{Name: "Singapore", Coords: geoscore.Coord{Lat: 1.3521, Lng: 103.8198}},
		{Name: "San Francisco, United States", Coords: geoscore.Coord{Lat: 37.7749, Lng: -122.4194}},
	}
}
