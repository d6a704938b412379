package ai

// EntityTypes defines the valid categories for extracted entities.
// These types are used by entity extractors to classify named things.
var EntityTypes = []string{
	"abstract_concept",
	"activity",
	"animal",
	"art",
	"building",
	"document",
	"drink",
	"emotion",
	"event",
	"food",
	"man_made_object",
	"measurement",
	"natural_object",
	"occupation",
	"organization",
	"person",
	"place",
	"plant",
	"project",
	"software",
	"technology",
	"time",
	"tool",
	"vehicle",
}
