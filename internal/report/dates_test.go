package report

import (
	"testing"

	"cafe-gateway/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestParseAnyDateToIso(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"iso passthrough", "2025-03-01", "2025-03-01"},
		{"dmy flip", "01/03/2025", "2025-03-01"},
		{"leading dmy token", "01/03/2025 14:30", "2025-03-01"},
		{"rfc3339", "2025-03-01T14:30:00Z", "2025-03-01"},
		{"space timestamp", "2025-03-01 14:30:00", "2025-03-01"},
		{"garbage", "not a date", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseAnyDateToIso(tc.in))
		})
	}
}

func TestIsoDisplayRoundTrip(t *testing.T) {
	assert.Equal(t, "01/03/2025", IsoToDisplay("2025-03-01"))
	assert.Equal(t, "2025-03-01", DisplayToIso("01/03/2025"))
	assert.Equal(t, "whatever", DisplayToIso("whatever"))
}

func TestLogIsoDate_FieldOrder(t *testing.T) {
	row := domain.ConsumptionLog{
		Date:      "garbage",
		CreatedAt: "2025-03-02T08:00:00Z",
		Timestamp: "2025-03-03T08:00:00Z",
	}
	// Date fails to parse, created_at wins over timestamp.
	assert.Equal(t, "2025-03-02", LogIsoDate(row))

	assert.Equal(t, "", LogIsoDate(domain.ConsumptionLog{}))
}
