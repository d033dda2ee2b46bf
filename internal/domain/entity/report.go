package entity

import (
	"time"
)

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusApproved  ReportStatus = "approved"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusDeclined  ReportStatus = "declined"
)

// Terminal reports whether no transition leaves the status.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusCompleted || s == ReportStatusDeclined
}

// Public reports whether reports in this status appear in the feed and accept upvotes.
func (s ReportStatus) Public() bool {
	return s == ReportStatusApproved || s == ReportStatusCompleted
}

const MaxDescriptionLength = 150

// Categories is the fixed set of issue types a report can be filed under.
var Categories = []string{
	"Pothole",
	"Broken Streetlight",
	"Graffiti",
	"Illegal Dumping",
	"Damaged Footpath",
	"Blocked Drain",
	"Damaged Road Sign",
	"Overgrown Vegetation",
	"Abandoned Vehicle",
	"Water Leak",
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// GeoPoint is the raw location fix captured by the device.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
	Accuracy  float64 `json:"accuracy" firestore:"accuracy"` // meters
}

// Decline is the audit record kept for a declined report.
type Decline struct {
	Reason     string    `json:"reason" firestore:"reason"`
	DeclinedBy string    `json:"declined_by" firestore:"declinedBy"`
	At         time.Time `json:"at" firestore:"at"`
}

// Report is a single issue submission. ID is the storage document id; SubmissionID is
// generated by the submitter and keys the image blob.
type Report struct {
	ID           string       `json:"id" firestore:"-"`
	SubmissionID string       `json:"submission_id" firestore:"submissionId"`
	UserID       string       `json:"user_id" firestore:"userId"`
	Category     string       `json:"category" firestore:"category"`
	Description  string       `json:"description" firestore:"description"`
	ImageURL     string       `json:"image_url" firestore:"imageUrl"`
	AddressLine1 string       `json:"address_line1" firestore:"addressLine1"`
	AddressLine2 string       `json:"address_line2,omitempty" firestore:"addressLine2,omitempty"`
	County       string       `json:"county" firestore:"county"`
	Eircode      string       `json:"eircode" firestore:"eircode"`
	Location     *GeoPoint    `json:"location,omitempty" firestore:"location,omitempty"`
	Status       ReportStatus `json:"status" firestore:"status"`
	AssignedTo   string       `json:"assigned_to,omitempty" firestore:"assigned"`
	Upvotes      int          `json:"upvotes" firestore:"upvotes"`
	Decline      *Decline     `json:"decline,omitempty" firestore:"decline,omitempty"`
	CreatedAt    time.Time    `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time    `json:"updated_at" firestore:"updatedAt"`
}

// ReportFilter narrows report listings. Empty fields do not filter.
type ReportFilter struct {
	UserID   string
	Statuses []ReportStatus
	County   string
	Category string
	Limit    int
	Offset   int
}
