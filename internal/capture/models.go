// Package capture implements the per-source decision engine: whether a
// freshly fetched snapshot is worth archiving.
package capture

import (
	"fmt"
	"time"

	"github.com/snowstake/stakecam/internal/forecast"
	"github.com/snowstake/stakecam/internal/imaging"
)

// Source is a monitored webcam/resort entry. Name doubles as the archive
// path segment for the source. Coordinates are optional; without them (and
// without a geocodable Place) the forecast gate is disabled for the source.
type Source struct {
	Name        string        `json:"name" yaml:"name" validate:"required"`
	SnapshotURL string        `json:"snapshot_url" yaml:"snapshot_url" validate:"required,url"`
	Lat         *float64      `json:"lat,omitempty" yaml:"lat"`
	Lon         *float64      `json:"lon,omitempty" yaml:"lon"`
	Place       string        `json:"place,omitempty" yaml:"place"`
	Crop        *imaging.Rect `json:"crop,omitempty" yaml:"crop"`
}

// HasCoordinates reports whether the forecast gate can run for this source.
func (s Source) HasCoordinates() bool {
	return s.Lat != nil && s.Lon != nil
}

// Decision reasons, logged and exposed via the status API.
const (
	ReasonSnowExpected  = "snow expected"
	ReasonFirstCapture  = "no reference image"
	ReasonSceneChanged  = "scene changed"
	ReasonNearDuplicate = "near-duplicate of reference"
	ReasonCompareFailed = "comparison failed"
)

// Decision is the per-source verdict for one cycle.
type Decision struct {
	Source    string            `json:"source"`
	Keep      bool              `json:"keep"`
	Reason    string            `json:"reason"`
	Filename  string            `json:"filename"`
	Timestamp time.Time         `json:"timestamp"` // always UTC, minute resolution
	Forecast  *forecast.Verdict `json:"forecast,omitempty"`
	Distance  *int              `json:"distance,omitempty"`
}

// Filename returns the archival filename for a capture at ts. Minute
// granularity: collisions within the same minute are last-write-wins.
func Filename(name string, ts time.Time) string {
	return fmt.Sprintf("%s_%s.jpg", name, ts.UTC().Format("200601021504"))
}

// ObjectPath returns the full archive path: {name}/{date}/{filename}.
func ObjectPath(name string, ts time.Time) string {
	return fmt.Sprintf("%s/%s/%s", name, ts.UTC().Format("2006-01-02"), Filename(name, ts))
}
