package parking

import "time"

// CacheTTL is how long a persisted location config stays valid.
const CacheTTL = 24 * time.Hour

// Position is a point in floor-plan coordinates.
// The origin is the top-left corner of the floor plan; units are plan pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions describes the footprint of a parking spot on the floor plan.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rotation is the orientation of a spot in degrees.
// Only the four cardinal rotations are valid.
type Rotation int

// Valid rotations for spot rendering.
const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

// IsValid reports whether r is one of the four cardinal rotations.
func (r Rotation) IsValid() bool {
	switch r {
	case Rotation0, Rotation90, Rotation180, Rotation270:
		return true
	}
	return false
}

// SpotConfig describes a single parking spot. It is created once at config
// load and never mutated for the lifetime of the session; live occupancy is
// tracked separately in SpotState.
type SpotConfig struct {
	SpotID     string     `json:"spot_id"`
	SensorID   int        `json:"sensor_id"`
	Position   Position   `json:"position"`
	Dimensions Dimensions `json:"dimensions"`
	Rotation   Rotation   `json:"rotation"`
}

// Section returns the section identifier for the spot: the first character
// of its spot ID ("A3" belongs to section "A"). Sections are derived rather
// than stored so membership can never drift from the spot identity.
func (s SpotConfig) Section() string {
	if s.SpotID == "" {
		return ""
	}
	return s.SpotID[:1]
}

// NavigationWaypoint is a named point on a floor's navigable path graph.
type NavigationWaypoint struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

// DestinationMarker is the synthetic terminal waypoint ID used in authored
// routes. It is resolved at path-generation time to a position inside the
// target spot's footprint.
const DestinationMarker = "destination"

// NavigationRoute is an authored, directional route from the entrance to a
// section's destination marker. Routes are data, not computed paths: the
// waypoint sequence is hand-authored per building and the final entry is
// logically DestinationMarker.
type NavigationRoute struct {
	Section   string   `json:"section"`
	Waypoints []string `json:"waypoints"`
}

// GestureLimits bounds the zoom/pan gestures the map view may apply.
// The core carries these as opaque layout data for the UI layer.
type GestureLimits struct {
	MinScale  float64 `json:"min_scale"`
	MaxScale  float64 `json:"max_scale"`
	PanMargin float64 `json:"pan_margin"`
}

// InitialView is the map viewport applied when a floor is first shown.
type InitialView struct {
	Scale  float64  `json:"scale"`
	Center Position `json:"center"`
}

// FloorConfig describes one floor of a parking location: its spots, the
// navigable waypoint graph, and the authored per-section routes.
type FloorConfig struct {
	FloorNumber   int                  `json:"floor_number"`
	FloorName     string               `json:"floor_name"`
	BuildingName  string               `json:"building_name"`
	EntrancePoint Position             `json:"entrance_point"`
	Spots         []SpotConfig         `json:"spots"`
	Waypoints     []NavigationWaypoint `json:"waypoints"`
	Routes        []NavigationRoute    `json:"routes"`
	GestureLimits GestureLimits        `json:"gesture_limits"`
	InitialView   InitialView          `json:"initial_view"`
}

// LocationConfig is the complete parking layout for one location.
type LocationConfig struct {
	LocationID   string        `json:"location_id"`
	LocationName string        `json:"location_name"`
	Floors       []FloorConfig `json:"floors"`
	Version      string        `json:"version"`
	LastUpdated  time.Time     `json:"last_updated"`
}

// Floor returns the floor with the given number, or nil if no floor matches.
func (c *LocationConfig) Floor(number int) *FloorConfig {
	for i := range c.Floors {
		if c.Floors[i].FloorNumber == number {
			return &c.Floors[i]
		}
	}
	return nil
}

// DeepCopy returns a copy of the config that shares no mutable state with
// the original. Cached configs are always handed out as deep copies so
// callers cannot corrupt the cache.
func (c *LocationConfig) DeepCopy() *LocationConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Floors = make([]FloorConfig, len(c.Floors))
	for i := range c.Floors {
		f := c.Floors[i]
		f.Spots = append([]SpotConfig(nil), c.Floors[i].Spots...)
		f.Waypoints = append([]NavigationWaypoint(nil), c.Floors[i].Waypoints...)
		f.Routes = make([]NavigationRoute, len(c.Floors[i].Routes))
		for j := range c.Floors[i].Routes {
			r := c.Floors[i].Routes[j]
			r.Waypoints = append([]string(nil), r.Waypoints...)
			f.Routes[j] = r
		}
		out.Floors[i] = f
	}
	return &out
}

// CacheMetadata describes a persisted config cache entry. A cache entry is
// valid only if its location matches the request and it has not expired.
type CacheMetadata struct {
	LocationID string    `json:"location_id"`
	Version    string    `json:"version"`
	CachedAt   time.Time `json:"cached_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// NewCacheMetadata builds metadata for a config cached at the given instant.
// ExpiresAt is always CachedAt + CacheTTL.
func NewCacheMetadata(locationID, version string, now time.Time) CacheMetadata {
	return CacheMetadata{
		LocationID: locationID,
		Version:    version,
		CachedAt:   now,
		ExpiresAt:  now.Add(CacheTTL),
	}
}

// Valid reports whether the cached entry may serve a request for locationID
// at the given instant.
func (m CacheMetadata) Valid(locationID string, now time.Time) bool {
	return m.LocationID == locationID && now.Before(m.ExpiresAt)
}

// OccupancyEvent is a normalized per-sensor occupancy change. Events are
// ephemeral: they are folded into derived spot state and never persisted.
type OccupancyEvent struct {
	SensorID  int       `json:"sensor_id"`
	Occupied  bool      `json:"is_occupied"`
	Floor     *int      `json:"floor,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SpotState is the live state of one spot: static geometry copied from the
// config plus the latest occupancy reading. Mutated only by applying
// occupancy events through the sensor-to-spot mapping.
type SpotState struct {
	SpotID     string     `json:"spot_id"`
	SensorID   int        `json:"sensor_id"`
	Section    string     `json:"section"`
	Position   Position   `json:"position"`
	Dimensions Dimensions `json:"dimensions"`
	Rotation   Rotation   `json:"rotation"`
	Occupied   bool       `json:"is_occupied"`
}

// SectionSummary is the aggregate availability of one section. Summaries are
// recomputed from scratch on every state change; they are never adjusted
// incrementally, so counts cannot drift.
type SectionSummary struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	TotalSlots     int    `json:"total_slots"`
	AvailableSlots int    `json:"available_slots"`
	IsFull         bool   `json:"is_full"`
}
