package dto

import (
	"testing"

	"github.com/google/uuid"
)

func TestGrantSubscriptionRequestTiers(t *testing.T) {
	id, _ := uuid.NewV7()

	tests := []struct {
		tier    string
		wantErr bool
	}{
		{"buddypass", false},
		{"bestfriends", false},
		{"soulmates", false},
		{"monthly", true},
		{"annual", true},
		{"lifetime", true},
		{"BUDDYPASS", true},
		{"", true},
	}

	for _, tc := range tests {
		err := GrantSubscriptionRequest{
			UserID:       id.String(),
			Tier:         tc.tier,
			DurationDays: 30,
		}.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("tier %q: err = %v, wantErr %v", tc.tier, err, tc.wantErr)
		}
	}
}
