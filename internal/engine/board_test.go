package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityVisibility(t *testing.T) {
	spymaster := &Player{Name: "Red Spymaster", Role: "Spymaster", Seat: 0}
	operative := &Player{Name: "Red Operatives", Role: "Operatives", Seat: 1}
	otherSpy := &Player{Name: "Blue Spymaster", Role: "Spymaster", Seat: 2}

	tests := []struct {
		name   string
		entity Entity
		viewer *Player
		want   bool
	}{
		{"public to anyone", PublicEntity(), operative, true},
		{"public to spectator", PublicEntity(), nil, true},
		{"role to holder", RoleEntity("Spymaster"), spymaster, true},
		{"role to other role", RoleEntity("Spymaster"), operative, false},
		{"role to spectator", RoleEntity("Spymaster"), nil, false},
		{"owner to owner", OwnedEntity(0), spymaster, true},
		{"owner to same role", OwnedEntity(0), otherSpy, false},
		{"owner to spectator", OwnedEntity(0), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entity.VisibleTo(tt.viewer))
		})
	}
}

func TestRevealOnlyCallsShownWhenVisible(t *testing.T) {
	called := false
	shown := func() string {
		called = true
		return "Princess"
	}

	out := Reveal(OwnedEntity(1), &Player{Seat: 0}, shown, "face down")
	assert.Equal(t, "face down", out)
	assert.False(t, called)

	out = Reveal(OwnedEntity(1), &Player{Seat: 1}, shown, "face down")
	assert.Equal(t, "Princess", out)
	assert.True(t, called)
}

type plainBoard struct{}

func (plainBoard) View(ViewContext) string { return "view" }

type hintBoard struct{ plainBoard }

func (hintBoard) PromptView(ViewContext) string { return "view with hints" }

func TestPromptViewFallsBackToView(t *testing.T) {
	assert.Equal(t, "view", PromptView(plainBoard{}, ViewContext{}))
	assert.Equal(t, "view with hints", PromptView(hintBoard{}, ViewContext{}))
}
