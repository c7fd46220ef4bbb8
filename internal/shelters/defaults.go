package shelters

import "shelternav.org/internal/models"

// Defaults is the built-in shelter list used when no source is configured.
// It covers central Bengaluru.
func Defaults() []models.Shelter {
	return []models.Shelter{
		models.NewShelter("Cubbon Park Community Hall", 12.9721, 77.5933),
		models.NewShelter("Kanteerava Stadium Relief Centre", 12.9755, 77.5980),
		models.NewShelter("Town Hall Shelter", 12.9634, 77.5855),
		models.NewShelter("Shivajinagar Government School", 12.9857, 77.6050),
		models.NewShelter("Lalbagh West Gate Relief Camp", 12.9507, 77.5848),
		models.NewShelter("Majestic Bus Station Shelter", 12.9767, 77.5713),
	}
}
