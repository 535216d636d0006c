package engine

// ViewContext is the viewer and the state a projection is computed for.
type ViewContext struct {
	Player *Player
	State  State
}

// Board projects game state into text for one viewer. It holds no truth of its own.
type Board interface {
	View(ctx ViewContext) string
}

// PromptBoard is a board with a machine-oriented projection, for example one that
// lists legal moves. It must not reveal more than View does for the same viewer.
type PromptBoard interface {
	Board
	PromptView(ctx ViewContext) string
}

// PromptView returns the board's prompt projection, falling back to View.
func PromptView(b Board, ctx ViewContext) string {
	if pb, ok := b.(PromptBoard); ok {
		return pb.PromptView(ctx)
	}
	return b.View(ctx)
}

// Visibility classifies who may see an entity.
type Visibility int

const (
	// Public entities are shown to every viewer.
	Public Visibility = iota
	// RoleRestricted entities are shown to viewers holding one of the listed roles.
	RoleRestricted
	// OwnerOnly entities are shown to the owning seat only, even among players sharing a role.
	OwnerOnly
)

func (v Visibility) String() string {
	switch v {
	case Public:
		return "PUBLIC"
	case RoleRestricted:
		return "ROLE_RESTRICTED"
	case OwnerOnly:
		return "OWNER_ONLY"
	default:
		return "UNKNOWN"
	}
}

// NoOwner marks an entity without an owning seat.
const NoOwner = -1

// Entity describes the visibility of one piece of state.
type Entity struct {
	Visibility Visibility
	Owner      int
	Roles      []string
}

// PublicEntity is visible to everyone.
func PublicEntity() Entity { return Entity{Visibility: Public, Owner: NoOwner} }

// RoleEntity is visible to the listed roles.
func RoleEntity(roles ...string) Entity {
	return Entity{Visibility: RoleRestricted, Owner: NoOwner, Roles: roles}
}

// OwnedEntity is visible to one seat.
func OwnedEntity(seat int) Entity { return Entity{Visibility: OwnerOnly, Owner: seat} }

// VisibleTo reports whether viewer may see the entity. A nil viewer is a spectator
// and only sees public entities.
func (e Entity) VisibleTo(viewer *Player) bool {
	switch e.Visibility {
	case Public:
		return true
	case RoleRestricted:
		if viewer == nil {
			return false
		}
		for _, r := range e.Roles {
			if r == viewer.Role {
				return true
			}
		}
		return false
	case OwnerOnly:
		return viewer != nil && e.Owner != NoOwner && viewer.Seat == e.Owner
	default:
		return false
	}
}

// Reveal returns shown when viewer may see the entity and hidden otherwise.
// Boards format restricted fields through it so a projection never reads what
// the viewer is not entitled to.
func Reveal(e Entity, viewer *Player, shown func() string, hidden string) string {
	if e.VisibleTo(viewer) {
		return shown()
	}
	return hidden
}
