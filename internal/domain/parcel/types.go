package parcel

type TenureType string

const (
	TenureOldPossession TenureType = "OLD_POSSESSION"
	TenureLease         TenureType = "LEASE"
)

func (t TenureType) IsValid() bool {
	return t == TenureOldPossession || t == TenureLease
}

func (t TenureType) IsLease() bool {
	return t == TenureLease
}

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRetired Status = "RETIRED"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusRetired
}

// Location is the administrative address of a parcel.
type Location struct {
	SubCity      string
	Wereda       string
	Kebele       string
	BlockNumber  string
	ParcelNumber string
}

func (l Location) IsZero() bool {
	return l == Location{}
}

// MergeFrom fills every unset field of l from parent.
func (l Location) MergeFrom(parent Location) Location {
	if l.SubCity == "" {
		l.SubCity = parent.SubCity
	}
	if l.Wereda == "" {
		l.Wereda = parent.Wereda
	}
	if l.Kebele == "" {
		l.Kebele = parent.Kebele
	}
	if l.BlockNumber == "" {
		l.BlockNumber = parent.BlockNumber
	}
	if l.ParcelNumber == "" {
		l.ParcelNumber = parent.ParcelNumber
	}
	return l
}

// Boundary describes neighbouring features on each side plus an optional
// GeoJSON geometry.
type Boundary struct {
	North    string
	East     string
	South    string
	West     string
	Geometry []byte
}

// MergeFrom fills every unset field of b from parent.
func (b Boundary) MergeFrom(parent Boundary) Boundary {
	if b.North == "" {
		b.North = parent.North
	}
	if b.East == "" {
		b.East = parent.East
	}
	if b.South == "" {
		b.South = parent.South
	}
	if b.West == "" {
		b.West = parent.West
	}
	if len(b.Geometry) == 0 {
		b.Geometry = parent.Geometry
	}
	return b
}
