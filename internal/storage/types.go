package storage

import "time"

// Session is an anonymous client identity.
type Session struct {
	Token      string
	IPHash     string // HMAC of the client address, never the address itself
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// PaletteStatus is the publication state of a palette.
type PaletteStatus string

const (
	StatusPublished PaletteStatus = "published"
	StatusFeatured  PaletteStatus = "featured"
)

// Color is one entry of a palette. Value is opaque CSS color text.
type Color struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Owner identifies who may rename a palette. It is either a SessionOwner or
// AnonymousOwner; there is no third case.
type Owner interface {
	isOwner()
}

// SessionOwner is a palette published through the session-aware path.
type SessionOwner struct {
	Token string
}

// AnonymousOwner is a palette published through the legacy path. Nobody owns it.
type AnonymousOwner struct{}

func (SessionOwner) isOwner()   {}
func (AnonymousOwner) isOwner() {}

// Palette is a named, ordered list of colors.
type Palette struct {
	Slug      string
	Name      string
	Colors    []Color
	VoteCount int
	Status    PaletteStatus
	Owner     Owner
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NameStatus is the moderation state of a proposed color name.
type NameStatus string

const (
	NameProposed NameStatus = "proposed"
	NameApproved NameStatus = "approved"
	NameRejected NameStatus = "rejected"
)

// ProposedName is a candidate named color awaiting, or past, moderation.
type ProposedName struct {
	ID          int64
	Name        string
	CSS         string
	Contributor string // empty when not given
	Status      NameStatus
	CreatedAt   time.Time
	ApprovedAt  *time.Time
}
