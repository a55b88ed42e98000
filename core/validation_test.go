package core

import (
	"errors"
	"testing"
)

func TestValidateEntity(t *testing.T) {
	tests := []struct {
		name    string
		entity  Entity
		wantErr error
	}{
		{
			name:    "valid note",
			entity:  &Note{Id: 1, Name: "n"},
			wantErr: nil,
		},
		{
			name:    "valid notebook with empty name",
			entity:  &Notebook{Id: 2},
			wantErr: nil,
		},
		{
			name:    "nil entity",
			entity:  nil,
			wantErr: ErrInvalidEntity,
		},
		{
			name:    "typed nil pointer",
			entity:  (*Note)(nil),
			wantErr: ErrInvalidEntity,
		},
		{
			name:    "zero id",
			entity:  &User{Username: "ada"},
			wantErr: ErrZeroID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntity(tt.entity)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntity() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntity() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEntity) {
				t.Errorf("ValidateEntity() error = %v, should wrap ErrInvalidEntity", err)
			}
		})
	}
}

func TestValidatePartial(t *testing.T) {
	if err := ValidatePartial(Record{"name": "x"}); err != nil {
		t.Errorf("ValidatePartial() unexpected error = %v", err)
	}
	if err := ValidatePartial(Record{"id": 3}); !errors.Is(err, ErrPrimaryKeyChange) {
		t.Errorf("ValidatePartial() error = %v, want %v", err, ErrPrimaryKeyChange)
	}
}
