package engine

import "testing"

func TestResolveField(t *testing.T) {
	context := map[string]any{
		"driverAge": 34,
		"vehicle": map[string]any{
			"value": 25000.0,
			"security": map[string]any{
				"alarm": true,
			},
		},
		"notes":       nil,
		"postcode":    "2000",
		"plainString": "x",
	}

	tests := []struct {
		name        string
		path        string
		want        any
		wantPresent bool
	}{
		{"top level", "driverAge", 34, true},
		{"nested one deep", "vehicle.value", 25000.0, true},
		{"nested two deep", "vehicle.security.alarm", true, true},
		{"present nil", "notes", nil, true},
		{"missing top level", "claimCount", nil, false},
		{"missing nested", "vehicle.colour", nil, false},
		{"traverse through scalar", "plainString.length", nil, false},
		{"traverse through nil", "notes.body", nil, false},
		{"empty path", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present := ResolveField(context, tt.path)
			if present != tt.wantPresent {
				t.Fatalf("ResolveField(%q) present = %v, want %v", tt.path, present, tt.wantPresent)
			}
			if got != tt.want {
				t.Errorf("ResolveField(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
