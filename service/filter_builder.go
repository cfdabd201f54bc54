package services

import model "github.com/Itish41/EmployeeCounsel/models"

// BuildFilter returns the isolation predicate for a user's documents. Without
// a session it matches the user's permanent library; with one it matches only
// that conversation. The owner predicate always comes first.
func BuildFilter(ownerID string, sessionID *string) model.Filter {
	if sessionID == nil || *sessionID == "" {
		return model.Eq(model.AttrOwnerID, ownerID)
	}
	return model.And(
		model.Eq(model.AttrOwnerID, ownerID),
		model.Eq(model.AttrSessionID, *sessionID),
	)
}
