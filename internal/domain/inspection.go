package domain

import "fmt"

// InspectionType distinguishes the pre-rental check-in from the post-rental
// check-out. The numeric values are the wire values.
type InspectionType int

const (
	InspectionTypeCheckIn  InspectionType = 1
	InspectionTypeCheckOut InspectionType = 2
)

func (t InspectionType) String() string {
	switch t {
	case InspectionTypeCheckIn:
		return "CheckIn"
	case InspectionTypeCheckOut:
		return "CheckOut"
	}
	return fmt.Sprintf("InspectionType(%d)", int(t))
}

func (t InspectionType) Valid() bool {
	return t == InspectionTypeCheckIn || t == InspectionTypeCheckOut
}

type InspectionItem struct {
	Section string   `json:"section"`
	Label   string   `json:"label"`
	Value   string   `json:"value"`
	Passed  bool     `json:"passed"`
	Notes   string   `json:"notes"`
	Images  []string `json:"images,omitempty"`
}

// Inspection is a point-in-time condition record for one booking. It is
// immutable once submitted.
type Inspection struct {
	ID                string           `json:"id"`
	BookingID         string           `json:"bookingId"`
	Type              InspectionType   `json:"type"`
	PerformedByUserID string           `json:"performedByUserId"`
	BranchID          string           `json:"branchId"`
	Notes             string           `json:"notes"`
	Items             []InspectionItem `json:"items"`
	CreatedAt         Timestamp        `json:"createdAt"`
}

// PassRate is passed/total over the items, 0 when there are none. It is for
// display only and never drives a booking transition.
func (in *Inspection) PassRate() float64 {
	if len(in.Items) == 0 {
		return 0
	}
	return float64(in.PassedCount()) / float64(len(in.Items))
}

// PassedCount returns the number of items that passed.
func (in *Inspection) PassedCount() int {
	n := 0
	for _, it := range in.Items {
		if it.Passed {
			n++
		}
	}
	return n
}

// CreateInspectionRequest is the body of POST /Inspections.
type CreateInspectionRequest struct {
	BookingID         string           `json:"bookingId"`
	Type              InspectionType   `json:"type"`
	PerformedByUserID string           `json:"performedByUserId"`
	BranchID          string           `json:"branchId"`
	Notes             string           `json:"notes"`
	Items             []InspectionItem `json:"items"`
}

// Branch is a physical pickup/return location.
type Branch struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}
