package domain

import "time"

// MeterKind distinguishes the two metered utilities. The wire values
// mirror the ERP nomenclature and appear verbatim in report payloads.
type MeterKind string

const (
	KindWater       MeterKind = "EAU"
	KindElectricity MeterKind = "ELECTRICITE"
)

// Valid reports whether the kind is one of the supported utilities.
func (k MeterKind) Valid() bool {
	return k == KindWater || k == KindElectricity
}

// SerialLength is the fixed width of a meter serial number.
const SerialLength = 9

// Meter is a physical water or electricity meter at an address.
// CurrentIndex is the authoritative cumulative counter value and is
// monotonically non-decreasing over the meter's lifetime.
type Meter struct {
	Serial       string    `json:"serial"`
	Kind         MeterKind `json:"kind"`
	CurrentIndex int64     `json:"currentIndex"`
	AddressID    int64     `json:"addressId"`
	ClientID     int64     `json:"clientId"`
	InstalledAt  time.Time `json:"installedAt"`

	// Optional annotations populated by joined queries.
	Address *Address `json:"address,omitempty"`
	Client  *Client  `json:"client,omitempty"`
}

// Reading is an immutable observation of a meter's index. Readings are
// append-only: they are never updated or deleted once recorded.
type Reading struct {
	ID            int64     `json:"id"`
	RecordedAt    time.Time `json:"recordedAt"`
	PreviousIndex int64     `json:"previousIndex"`
	NewIndex      int64     `json:"newIndex"`
	Consumption   int64     `json:"consumption"`
	MeterSerial   string    `json:"meterSerial"`
	AgentID       int64     `json:"agentId"`
}

// ReadingDetail is a reading joined with the dimensions the
// aggregation engine groups by.
type ReadingDetail struct {
	Reading
	MeterKind      MeterKind `json:"meterKind"`
	AgentLastName  string    `json:"agentLastName"`
	AgentFirstName string    `json:"agentFirstName"`
	ZoneID         *int64    `json:"zoneId,omitempty"`
	ZoneLabel      string    `json:"zoneLabel,omitempty"`
	ZoneCity       string    `json:"zoneCity,omitempty"`
}

// Agent is a field agent who records readings. ZoneID is nil while the
// agent is unassigned.
type Agent struct {
	ID        int64  `json:"id"`
	Matricule string `json:"matricule"`
	LastName  string `json:"lastName"`
	FirstName string `json:"firstName"`
	ZoneID    *int64 `json:"zoneId,omitempty"`
	Zone      *Zone  `json:"zone,omitempty"`
}

// Zone is an administrative grouping of addresses used for workforce
// planning.
type Zone struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	City  string `json:"city"`
}

// Address belongs to a zone and holds a bounded number of meters.
type Address struct {
	ID     int64  `json:"id"`
	ERPRef string `json:"erpRef,omitempty"`
	Label  string `json:"label"`
	ZoneID int64  `json:"zoneId"`
	Zone   *Zone  `json:"zone,omitempty"`
}

// Client owns meters, not necessarily through a single address.
type Client struct {
	ID       int64  `json:"id"`
	ERPRef   string `json:"erpRef"`
	FullName string `json:"fullName"`
}

// User is a back-office account.
type User struct {
	ID                 int64     `json:"id"`
	LastName           string    `json:"lastName"`
	FirstName          string    `json:"firstName"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	MustChangePassword bool      `json:"mustChangePassword"`
	CreatedAt          time.Time `json:"createdAt"`
}

// User roles.
const (
	RoleSuperAdmin = "SUPERADMIN"
	RoleUser       = "USER"
)

// LoginLog is an audit row for a login attempt, successful or not.
type LoginLog struct {
	ID        int64
	UserID    *int64
	Email     string
	IPAddress string
	Success   bool
	At        time.Time
}

// ReadingFilter narrows reading listings.
type ReadingFilter struct {
	From   *time.Time
	To     *time.Time
	ZoneID *int64
	Limit  int
}

// MeterFilter narrows meter listings.
type MeterFilter struct {
	Kind   MeterKind
	ZoneID *int64
}

// MonthKindTotal is one row of a month × kind consumption rollup.
type MonthKindTotal struct {
	Month int
	Kind  MeterKind
	Total int64
}

// MonthTotal is the combined consumption of one calendar month.
type MonthTotal struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Total int64 `json:"totalConsumption"`
}

// AgentReadingCount ranks an agent by number of recorded readings.
type AgentReadingCount struct {
	AgentID   int64  `json:"agentId"`
	LastName  string `json:"lastName"`
	FirstName string `json:"firstName"`
	Readings  int64  `json:"nbReadings"`
}
