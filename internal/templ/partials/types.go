package partials

// AlertKind selects the colour scheme of an Alert.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertError   AlertKind = "error"
	AlertInfo    AlertKind = "info"
)

// AdviceResultData contains data for the design advice fragment.
type AdviceResultData struct {
	Summary         string
	Recommendations []RecommendationDisplay
	CareTips        []string
}

// RecommendationDisplay is one suggested curtain. ProductURL is empty when
// the suggestion does not match a catalog product.
type RecommendationDisplay struct {
	Category    string
	Color       string
	ProductName string
	ProductURL  string
	Price       string // Formatted per-panel price, empty without a product
	Reason      string
}

// MockupResultData contains data for the mockup fragment.
type MockupResultData struct {
	ImageURL    string
	ProductName string
	ProductURL  string
	Color       string
	Width       int
	Height      int
}
