package school

import (
	"testing"
	"time"
)

func TestValidateAge(t *testing.T) {
	tests := []struct {
		age     int
		wantErr bool
	}{
		{age: 4, wantErr: true},
		{age: 5},
		{age: 18},
		{age: 100},
		{age: 101, wantErr: true},
		{age: -1, wantErr: true},
	}
	for _, tt := range tests {
		if err := ValidateAge(tt.age); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAge(%d) error = %v, wantErr %v", tt.age, err, tt.wantErr)
		}
	}
	if got, want := ErrInvalidAge.Error(), "Age must be between 5 and 100"; got != want {
		t.Errorf("ErrInvalidAge = %q, want %q", got, want)
	}
}

func TestAttendancePercentage(t *testing.T) {
	tests := []struct {
		present, total int
		want           float64
	}{
		{present: 0, total: 0, want: 0},
		{present: 0, total: 4, want: 0},
		{present: 2, total: 3, want: 66.67},
		{present: 1, total: 3, want: 33.33},
		{present: 5, total: 5, want: 100},
	}
	for _, tt := range tests {
		if got := AttendancePercentage(tt.present, tt.total); got != tt.want {
			t.Errorf("AttendancePercentage(%d, %d) = %v, want %v", tt.present, tt.total, got, tt.want)
		}
	}
}

func TestDateOf(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	got := DateOf(time.Date(2024, 3, 5, 23, 30, 0, 0, lagos))
	if want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func Test_parseID(t *testing.T) {
	tests := []struct {
		in     string
		want   int64
		wantOk bool
	}{
		{in: "12", want: 12, wantOk: true},
		{in: " 3 ", want: 3, wantOk: true},
		{in: "0"},
		{in: "-4", want: -4},
		{in: "abc"},
		{in: ""},
	}
	for _, tt := range tests {
		got, ok := parseID(tt.in)
		if got != tt.want || ok != tt.wantOk {
			t.Errorf("parseID(%q) = %d, %v, want %d, %v", tt.in, got, ok, tt.want, tt.wantOk)
		}
	}
}

func TestAttendance_StatusDisplay(t *testing.T) {
	if got := (Attendance{Status: StatusPresent}).StatusDisplay(); got != "Present" {
		t.Errorf("StatusDisplay() = %q", got)
	}
	if got := (Attendance{Status: StatusAbsent}).StatusDisplay(); got != "Absent" {
		t.Errorf("StatusDisplay() = %q", got)
	}
	if got := RoleNone.String(); got != "none" {
		t.Errorf("RoleNone.String() = %q", got)
	}
}
