package commands

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestEventMatches(t *testing.T) {
	path := "/models/fhn.ode"

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{
			name:  "write to the model",
			event: fsnotify.Event{Name: "/models/fhn.ode", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "atomic save creates the model",
			event: fsnotify.Event{Name: "/models/fhn.ode", Op: fsnotify.Create},
			want:  true,
		},
		{
			name:  "rename during atomic save",
			event: fsnotify.Event{Name: "/models/fhn.ode", Op: fsnotify.Rename},
			want:  true,
		},
		{
			name:  "unclean path still matches",
			event: fsnotify.Event{Name: "/models/./fhn.ode", Op: fsnotify.Write},
			want:  true,
		},
		{
			name:  "write to a sibling file",
			event: fsnotify.Event{Name: "/models/other.ode", Op: fsnotify.Write},
			want:  false,
		},
		{
			name:  "editor backup file",
			event: fsnotify.Event{Name: "/models/fhn.ode~", Op: fsnotify.Create},
			want:  false,
		},
		{
			name:  "chmod is not a content change",
			event: fsnotify.Event{Name: "/models/fhn.ode", Op: fsnotify.Chmod},
			want:  false,
		},
		{
			name:  "remove is not a content change",
			event: fsnotify.Event{Name: "/models/fhn.ode", Op: fsnotify.Remove},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventMatches(tt.event, path))
		})
	}
}
