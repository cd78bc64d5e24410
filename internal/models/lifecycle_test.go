package models

import (
	"errors"
	"testing"
)

func TestLifecycleNext(t *testing.T) {
	tests := []struct {
		from    LifecycleState
		event   LifecycleEvent
		want    LifecycleState
		wantErr bool
	}{
		{LifecycleActive, EventTrash, LifecycleTrashed, false},
		{LifecycleTrashed, EventRestore, LifecycleActive, false},
		{LifecycleTrashed, EventPurge, LifecycleDeleted, false},
		{"", EventTrash, LifecycleTrashed, false},
		{LifecycleActive, EventPurge, LifecycleActive, true},
		{LifecycleActive, EventRestore, LifecycleActive, true},
		{LifecycleTrashed, EventTrash, LifecycleTrashed, true},
		{LifecycleDeleted, EventRestore, LifecycleDeleted, true},
		{LifecycleDeleted, EventPurge, LifecycleDeleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.event), func(t *testing.T) {
			got, err := tt.from.Next(tt.event)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
