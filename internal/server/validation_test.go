package server

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidateObjectID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{
			name:    "valid generated id",
			value:   primitive.NewObjectID().Hex(),
			wantErr: false,
		},
		{
			name:    "valid fixed id",
			value:   "507f1f77bcf86cd799439011",
			wantErr: false,
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
		{
			name:    "too short",
			value:   "507f1f77bcf86cd7994390",
			wantErr: true,
		},
		{
			name:    "too long",
			value:   "507f1f77bcf86cd79943901122",
			wantErr: true,
		},
		{
			name:    "non-hex characters",
			value:   "507f1f77bcf86cd79943901z",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vErr := validateObjectID("album_id", tt.value)
			if tt.wantErr && vErr == nil {
				t.Errorf("expected validation error for %q", tt.value)
			}
			if !tt.wantErr && vErr != nil {
				t.Errorf("unexpected validation error for %q: %+v", tt.value, vErr)
			}
			if vErr != nil && vErr.Field != "album_id" {
				t.Errorf("expected field album_id, got %q", vErr.Field)
			}
		})
	}
}

func TestValidateRequiredFields(t *testing.T) {
	errs := validateRequiredFields(map[string]string{
		"title":  "Night Tide",
		"artist": "   ",
	})

	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d: %+v", len(errs), errs)
	}
	if errs[0].Field != "artist" || errs[0].Code != "MISSING_FIELD" {
		t.Errorf("unexpected error: %+v", errs[0])
	}

	if errs := validateRequiredFields(map[string]string{"title": "Night Tide"}); len(errs) != 0 {
		t.Errorf("expected no errors for filled fields, got %+v", errs)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  Night Tide  ", "Night Tide"},
		{"strips null bytes", "Night\x00Tide", "NightTide"},
		{"empty stays empty", "", ""},
		{"inner whitespace preserved", "Night Tide", "Night Tide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
