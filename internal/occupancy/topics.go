package occupancy

import "fmt"

// Topic prefixes for the parkpilot broker namespace.
//
// Occupancy topics are scoped per location:
// parkpilot/occupancy/{location_id}/{kind}
const (
	// TopicPrefix is the base for all parkpilot topics.
	TopicPrefix = "parkpilot"

	// TopicPrefixOccupancy is the base for occupancy topics.
	TopicPrefixOccupancy = "parkpilot/occupancy"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "parkpilot/system"
)

// Topics provides builders for parkpilot broker topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// OccupancyEvents returns the topic carrying sensor events for a location.
//
// Example: parkpilot/occupancy/riverside-plaza/events
func (Topics) OccupancyEvents(locationID string) string {
	return fmt.Sprintf("%s/%s/events", TopicPrefixOccupancy, locationID)
}

// RefreshRequest returns the topic clients publish to when requesting a
// full occupancy snapshot for a location. The backend answers on the
// events topic.
//
// Example: parkpilot/occupancy/riverside-plaza/refresh
func (Topics) RefreshRequest(locationID string) string {
	return fmt.Sprintf("%s/%s/refresh", TopicPrefixOccupancy, locationID)
}

// SystemStatus returns the client status topic.
//
// Example: parkpilot/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllOccupancyEvents returns a pattern matching event topics for every
// location.
//
// Pattern: parkpilot/occupancy/+/events
func (Topics) AllOccupancyEvents() string {
	return fmt.Sprintf("%s/+/events", TopicPrefixOccupancy)
}
