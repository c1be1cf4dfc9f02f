package catalog

import "github.com/wfunc/flashfive/models"

// DefaultCatalog returns the bundled seed data: one demo category and four game
// categories. Each call returns a fresh copy.
func DefaultCatalog() models.Catalog {
	return models.Catalog{
		DemoImage: models.Category{
			ID:          models.DemoCategoryID,
			ImagePath:   "image1.jpg",
			Description: "Office/Workspace Setup - Demo",
			CorrectObjects: []string{
				"Laptop with keyboard and trackpad",
				"Smartphone with blank screen",
				"Silver pen",
				"White cup filled with black coffee",
				"Glass vase holding a bouquet of leaves",
			},
			IncorrectObjects: []string{
				"A sleek wireless mouse",
				"A minimalist notebook or planner",
				"An LED desk lamp with an adjustable arm",
				"A wooden organizer tray",
				"A small potted succulent for a pop of living green",
			},
		},
		GameImages: []models.Category{
			{
				ID:          1,
				ImagePath:   "image2.jpg",
				Description: "Emoji Collection",
				CorrectObjects: []string{
					"😂 Face with Tears of Joy",
					"😍 Smiling Face with Heart-Eyes",
					"😜 Winking Face with Tongue",
					"😬 Grimacing Face",
					"😵 Dizzy Face",
				},
				IncorrectObjects: []string{
					"🤣 Rolling on the Floor Laughing",
					"😝 Squinting Face with Tongue",
					"😁 Beaming Face with Smiling Eyes",
					"😆 Grinning Squinting Face",
					"😉 Winking Face",
				},
			},
			{
				ID:          2,
				ImagePath:   "image3.jpg",
				Description: "Fruit Collection",
				CorrectObjects: []string{
					"Bananas",
					"Green grapes",
					"Red grapes",
					"Oranges",
					"Watermelon",
				},
				IncorrectObjects: []string{
					"Lychee",
					"Rambutan",
					"Passion fruit",
					"Guava",
					"Persimmon",
				},
			},
			{
				ID:          3,
				ImagePath:   "image4.jpg",
				Description: "Vehicle Collection",
				CorrectObjects: []string{
					"Passenger sedans",
					"Sport Utility Vehicles (SUVs)",
					"Pickup trucks",
					"Vans",
					"Full-size SUV",
				},
				IncorrectObjects: []string{
					"Hatchbook",
					"Convertible",
					"Motorcycle or scooter",
					"Bus",
					"Semi-trailer truck",
				},
			},
			{
				ID:          4,
				ImagePath:   "image5.jpg",
				Description: "Tech Gadgets Collection",
				CorrectObjects: []string{
					"White over-ear headphones",
					"Black DSLR camera",
					"Small cylindrical Bluetooth speaker",
					"White tablet with white wired earphones",
					"Coiled white USB cable",
				},
				IncorrectObjects: []string{
					"Wireless earbuds with a charging case",
					"Portable SSD drive",
					"Stylus pen for touchscreen devices",
					"Laptop computer",
					"Compact foldable drone",
				},
			},
		},
	}
}
