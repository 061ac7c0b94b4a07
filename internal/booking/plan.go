package booking

import "strings"

// Party identifies how the caller relates to a booking.
type Party string

const (
	PartyNone     Party = ""
	PartyCustomer Party = "customer"
	PartyChef     Party = "chef"
)

// PartyOf returns the caller's relation to a booking.  A user who is both
// customer and chef of the same booking is treated as the customer.
func PartyOf(callerID, customerID, chefID uint64) Party {
	switch callerID {
	case 0:
		return PartyNone
	case customerID:
		return PartyCustomer
	case chefID:
		return PartyChef
	}
	return PartyNone
}

// statusRights lists the target statuses each party may request.
var statusRights = map[Party]map[Status]bool{
	PartyChef:     {StatusConfirmed: true, StatusCompleted: true},
	PartyCustomer: {StatusCancelled: true},
}

// Update is a partial booking update.  Nil fields were not submitted.
type Update struct {
	Status              *string
	EventDate           *string
	EventTime           *string
	GuestCount          *int
	SpecialRequests     *string
	DietaryRequirements *[]string
	Address             *string
}

// Changes is the part of an Update that may be written.  Ignored lists the
// submitted fields that were dropped, by JSON name.
type Changes struct {
	Status              *Status
	EventDate           *string
	EventTime           *string
	GuestCount          *int
	SpecialRequests     *string
	DietaryRequirements *[]string
	Address             *string
	Ignored             []string
}

// Empty reports whether nothing is left to write.
func (c Changes) Empty() bool {
	return c.Status == nil && c.EventDate == nil && c.EventTime == nil &&
		c.GuestCount == nil && c.SpecialRequests == nil &&
		c.DietaryRequirements == nil && c.Address == nil
}

// IgnoredHeader joins Ignored for the X-Ignored-Fields response header.
func (c Changes) IgnoredHeader() string { return strings.Join(c.Ignored, ",") }

// Plan filters u down to what party may apply to a booking currently in
// status current.  Disallowed statuses and fields are dropped silently
// (recorded in Ignored) rather than failing the request.
func Plan(party Party, current Status, u Update) Changes {
	var ch Changes
	if u.Status != nil {
		target := Status(*u.Status)
		if statusRights[party][target] && current.CanTransitionTo(target) {
			ch.Status = &target
		} else {
			ch.Ignored = append(ch.Ignored, "status")
		}
	}

	customer := party == PartyCustomer
	keep := func(name string, submitted bool) bool {
		if !submitted {
			return false
		}
		if !customer {
			ch.Ignored = append(ch.Ignored, name)
		}
		return customer
	}
	if keep("event_date", u.EventDate != nil) {
		ch.EventDate = u.EventDate
	}
	if keep("event_time", u.EventTime != nil) {
		ch.EventTime = u.EventTime
	}
	if keep("guest_count", u.GuestCount != nil) {
		ch.GuestCount = u.GuestCount
	}
	if keep("special_requests", u.SpecialRequests != nil) {
		ch.SpecialRequests = u.SpecialRequests
	}
	if keep("dietary_requirements", u.DietaryRequirements != nil) {
		ch.DietaryRequirements = u.DietaryRequirements
	}
	if keep("address", u.Address != nil) {
		ch.Address = u.Address
	}
	return ch
}
