package models

import "time"

// Provider represents a bookable professional in the directory.
// The booking engine only reads ID, Availability, WeeklyHours and the fee;
// the rest belongs to the profile pages.
type Provider struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Specialty   string `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`
	Address     string `bson:"address,omitempty" json:"address,omitempty"`

	// FeeMinorUnits is the consultation fee in the smallest currency unit.
	FeeMinorUnits int64  `bson:"feeMinorUnits" json:"feeMinorUnits"`
	Currency      string `bson:"currency,omitempty" json:"currency,omitempty"`

	// Availability maps weekday names ("Monday" ... "Sunday") to whether the
	// provider accepts bookings that day.
	Availability map[string]bool `bson:"availability" json:"availability"`

	// WeeklyHours holds the published hours per open weekday. A weekday with
	// no entry has no bookable slots even if Availability marks it open.
	WeeklyHours map[string]WeeklyHours `bson:"weeklyHours,omitempty" json:"weeklyHours,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WeeklyHours describes one weekday's slot layout: contiguous slots of
// SlotIntervalMinutes between StartMinute and EndMinute.
type WeeklyHours struct {
	Day                 string `bson:"day" json:"day"`
	StartMinute         int    `bson:"startMinute" json:"startMinute"`
	EndMinute           int    `bson:"endMinute" json:"endMinute"`
	SlotIntervalMinutes int    `bson:"slotIntervalMinutes" json:"slotIntervalMinutes"`
}
