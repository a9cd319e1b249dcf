package automation

import "sort"

// InterpolationMode is the curve shape of the segment starting at a point
type InterpolationMode string

const (
	Linear      InterpolationMode = "linear"
	Exponential InterpolationMode = "exponential"
	Step        InterpolationMode = "step"
)

// Point is one control point of a parameter curve
type Point struct {
	ID    string            `yaml:"id"`
	Beat  float64           `yaml:"beat"`
	Value float64           `yaml:"value"`
	Mode  InterpolationMode `yaml:"mode"`
}

// Lane is a parameter curve owned by a track or the master bus. Points must
// stay sorted by beat; use Insert rather than appending.
type Lane struct {
	ID        string  `yaml:"id"`
	Parameter string  `yaml:"parameter"`
	TargetID  string  `yaml:"targetId"`
	Points    []Point `yaml:"points"`
	Enabled   bool    `yaml:"enabled"`
}

// TrackLanes is the automation of one track as seen by the Scheduler
type TrackLanes struct {
	TrackID string
	Lanes   []Lane
}

// Insert adds p keeping points sorted. A point at an existing beat goes
// after the points already there.
func (l *Lane) Insert(p Point) {
	i := sort.Search(len(l.Points), func(i int) bool { return l.Points[i].Beat > p.Beat })
	l.Points = append(l.Points, Point{})
	copy(l.Points[i+1:], l.Points[i:])
	l.Points[i] = p
}

// Remove deletes the point with the given id
func (l *Lane) Remove(pointID string) bool {
	for i, p := range l.Points {
		if p.ID == pointID {
			l.Points = append(l.Points[:i], l.Points[i+1:]...)
			return true
		}
	}
	return false
}

// Move changes a point's position and value and restores sort order
func (l *Lane) Move(pointID string, beat, value float64) bool {
	for i, p := range l.Points {
		if p.ID == pointID {
			l.Points = append(l.Points[:i], l.Points[i+1:]...)
			p.Beat, p.Value = beat, value
			l.Insert(p)
			return true
		}
	}
	return false
}

// Clone returns a deep copy
func (l Lane) Clone() Lane {
	l.Points = append([]Point(nil), l.Points...)
	return l
}

// Sorted reports whether points are in beat order
func (l *Lane) Sorted() bool {
	return sort.SliceIsSorted(l.Points, func(i, j int) bool { return l.Points[i].Beat < l.Points[j].Beat })
}
