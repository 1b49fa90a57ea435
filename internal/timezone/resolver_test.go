package timezone

import (
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestResolverPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		preference string
		sysDefault string
		want       string
	}{
		{"valid preference wins", "Europe/Berlin", "Asia/Tokyo", "Europe/Berlin"},
		{"legacy preference corrected", "Hanoi", "Asia/Tokyo", "Asia/Ho_Chi_Minh"},
		{"legacy preference trimmed", "  Hanoi ", "", "Asia/Ho_Chi_Minh"},
		{"blank preference uses default", "   ", "Asia/Tokyo", "Asia/Tokyo"},
		{"invalid preference uses default", "Mars/Olympus", "Asia/Tokyo", "Asia/Tokyo"},
		{"legacy default corrected", "", "Tokyo", "Asia/Tokyo"},
		{"invalid both uses fallback", "Mars/Olympus", "Nowhere", Fallback},
		{"nothing set uses fallback", "", "", Fallback},
		{"Local is not a preference", "Local", "", Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.sysDefault)
			assert.Equal(t, tt.want, r.Resolve(tt.preference))
		})
	}
}

func TestResolveUsesTableAsData(t *testing.T) {
	legacy := map[string]string{"Saigon": "Asia/Ho_Chi_Minh"}
	assert.Equal(t, "Asia/Ho_Chi_Minh", Resolve([]string{"Saigon"}, "Etc/UTC", legacy))
	assert.Equal(t, "Etc/UTC", Resolve([]string{"Hanoi"}, "Etc/UTC", legacy))
}

func TestResolverLocation(t *testing.T) {
	r := NewResolver("")
	loc := r.Location("Hanoi")
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())
	assert.Equal(t, Fallback, r.Location("garbage").String())
}

func TestLegacyTableTargetsAreLoadable(t *testing.T) {
	for name, target := range LegacyNames {
		assert.Equal(t, target, Resolve([]string{name}, "none", LegacyNames), name)
	}
}
