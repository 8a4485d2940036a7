package types

// GuestListEntry ties a profile to its biometric result. Rank and Admitted are derived.
type GuestListEntry struct {
	Attendee        EnrichedProfile `json:"attendee"`
	BiometricResult BiometricResult `json:"biometric_result"`
	Rank            int             `json:"rank"`
	Admitted        bool            `json:"admitted"`
}

// AdmittedProfiles returns the admitted attendees in rank order.
func AdmittedProfiles(list []GuestListEntry) []EnrichedProfile {
	out := make([]EnrichedProfile, 0, len(list))
	for _, entry := range list {
		if entry.Admitted {
			out = append(out, entry.Attendee)
		}
	}
	return out
}
