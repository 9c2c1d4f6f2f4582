package utils

import "testing"

type slotPayload struct {
	TimeSlot string `validate:"timeslot"`
}

func TestTimeSlotValidation(t *testing.T) {
	tests := []struct {
		slot  string
		valid bool
	}{
		{"08:00-08:30", true},
		{"00:00-23:59", true},
		{"13:15-14:45", true},
		{"8:00-8:30", false},
		{"08:00", false},
		{"08:00 - 08:30", false},
		{"24:00-24:30", false},
		{"08:60-09:00", false},
		{"", false},
	}

	for _, tt := range tests {
		err := Validate(slotPayload{TimeSlot: tt.slot})
		if tt.valid && err != nil {
			t.Errorf("slot %q: expected valid, got %v", tt.slot, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("slot %q: expected validation failure", tt.slot)
		}
	}
}
