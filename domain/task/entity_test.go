package task

import (
	"errors"
	"testing"
)

func TestStatus_Toggle(t *testing.T) {
	if got := StatusPending.Toggle(); got != StatusDone {
		t.Errorf("StatusPending.Toggle() = %q, want %q", got, StatusDone)
	}
	if got := StatusDone.Toggle(); got != StatusPending {
		t.Errorf("StatusDone.Toggle() = %q, want %q", got, StatusPending)
	}
	if got := StatusPending.Toggle().Toggle(); got != StatusPending {
		t.Errorf("double toggle = %q, want %q", got, StatusPending)
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{input: "PENDENTE", want: StatusPending},
		{input: "pendente", want: StatusPending},
		{input: " Concluida ", want: StatusDone},
		{input: "CONCLUIDA", want: StatusDone},
		{input: "done", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidStatus) {
					t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseStatusToken(t *testing.T) {
	tests := []struct {
		token   string
		want    Status
		wantErr bool
	}{
		{token: "pendente", want: StatusPending},
		{token: "concluida", want: StatusDone},
		{token: "PENDENTE", wantErr: true},
		{token: "concluída", wantErr: true},
		{token: "todas", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseStatusToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatusToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatusToken(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestStatusFromBool(t *testing.T) {
	if StatusFromBool(true) != StatusDone {
		t.Error("StatusFromBool(true) should be done")
	}
	if StatusFromBool(false) != StatusPending {
		t.Error("StatusFromBool(false) should be pending")
	}
}
