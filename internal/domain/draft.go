package domain

import (
	"slices"
	"strings"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Contact groups the optional contact details of a place.
type Contact struct {
	Phone   string
	Website string
	Email   string
}

// MaxDraftPhotos caps how many photo references a submission may carry.
const MaxDraftPhotos = 3

// Draft is the partially completed place submission assembled by the
// guided flow. Fields are filled as stages complete.
type Draft struct {
	Location *Location
	// ManualAddress marks that the user skipped sharing coordinates
	// and will rely on the typed address instead.
	ManualAddress bool

	Name     string
	Category string
	Address  string

	Contact        *Contact
	ContactSkipped bool

	Hours    string
	Open24x7 bool

	Chain *bool

	// Attributes is a set: additions are idempotent, order is sorted.
	Attributes []string

	PhotoIDs []string
}

// Filled reports whether the draft holds a valid value for the given
// stage. Optional stages (contact, photos) count as filled once they
// were explicitly answered or skipped.
func (d *Draft) Filled(stage Stage) bool {
	switch stage {
	case StageLocation:
		return d.Location != nil || d.ManualAddress
	case StageName:
		return d.Name != ""
	case StageCategory:
		return d.Category != ""
	case StageAddress:
		return d.Address != ""
	case StageContact:
		return d.Contact != nil || d.ContactSkipped
	case StageHours:
		return d.Hours != ""
	case StageChainStatus:
		return d.Chain != nil
	case StageAttributes:
		// An empty attribute set is a valid answer.
		return true
	case StagePhotos:
		return true
	default:
		return false
	}
}

// AddAttribute inserts a tag into the attribute set. Returns false when
// the tag was already present.
func (d *Draft) AddAttribute(tag string) bool {
	tag = normalizeTag(tag)
	if tag == "" || slices.Contains(d.Attributes, tag) {
		return false
	}
	d.Attributes = append(d.Attributes, tag)
	slices.Sort(d.Attributes)
	return true
}

// RemoveAttribute drops a tag from the attribute set. Returns false
// when the tag was not present.
func (d *Draft) RemoveAttribute(tag string) bool {
	tag = normalizeTag(tag)
	i := slices.Index(d.Attributes, tag)
	if i < 0 {
		return false
	}
	d.Attributes = slices.Delete(d.Attributes, i, i+1)
	return true
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Clone returns a deep copy of the draft.
func (d *Draft) Clone() *Draft {
	cp := *d
	if d.Location != nil {
		loc := *d.Location
		cp.Location = &loc
	}
	if d.Contact != nil {
		c := *d.Contact
		cp.Contact = &c
	}
	if d.Chain != nil {
		b := *d.Chain
		cp.Chain = &b
	}
	cp.Attributes = slices.Clone(d.Attributes)
	cp.PhotoIDs = slices.Clone(d.PhotoIDs)
	return &cp
}
