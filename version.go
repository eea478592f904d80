package agentwire

// Version information for the agentwire library
const (
	// Version is the current library version
	Version = "development"

	// APIVersion is the current API version
	APIVersion = "v1alpha1"
)
