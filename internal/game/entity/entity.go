// Package entity holds posed actors and updates their animation in parallel.
package entity

import (
	"sort"

	"github.com/Faultbox/midgard-engine/pkg/math"
)

// Entity is one actor placed in the world.
type Entity struct {
	ID       uint32
	Name     string
	Position math.Vec3
	Yaw      float32 // radians about +Y
	Scale    float32

	Anim *Animated
}

// NewEntity creates an entity with an unbound animation component.
func NewEntity(id uint32, name string) *Entity {
	return &Entity{
		ID:    id,
		Name:  name,
		Scale: 1,
		Anim:  NewAnimated(1, true),
	}
}

// SetPosition sets the entity position.
func (e *Entity) SetPosition(x, y, z float32) {
	e.Position = math.Vec3{X: x, Y: y, Z: z}
}

// ModelMatrix places the entity's skeleton space in the world.
func (e *Entity) ModelMatrix() math.Mat4 {
	return math.Compose(
		e.Position,
		math.QuatFromAxisAngle(math.Vec3{Y: 1}, e.Yaw),
		math.Vec3{X: e.Scale, Y: e.Scale, Z: e.Scale},
	)
}

// Update advances the entity's animation.
func (e *Entity) Update(dt float32) error {
	if e.Anim == nil {
		return nil
	}
	return e.Anim.Update(dt)
}

// Manager manages all entities in the world. It is not safe for concurrent
// use; Update fans out internally.
type Manager struct {
	entities map[uint32]*Entity
	workers  int
}

// NewManager creates a new entity manager updating with the given number
// of workers.
func NewManager(workers int) *Manager {
	return &Manager{
		entities: make(map[uint32]*Entity),
		workers:  workers,
	}
}

// Add adds an entity, replacing any with the same ID.
func (m *Manager) Add(e *Entity) {
	m.entities[e.ID] = e
}

// Remove removes an entity.
func (m *Manager) Remove(id uint32) {
	delete(m.entities, id)
}

// Get returns an entity by ID.
func (m *Manager) Get(id uint32) *Entity {
	return m.entities[id]
}

// All returns all entities ordered by ID.
func (m *Manager) All() []*Entity {
	result := make([]*Entity, 0, len(m.entities))
	for _, e := range m.entities {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Count returns the total number of entities.
func (m *Manager) Count() int {
	return len(m.entities)
}

// Update advances every entity and returns once all are posed.
func (m *Manager) Update(dt float32) error {
	return UpdateAll(m.All(), dt, m.workers)
}

// Clear removes all entities.
func (m *Manager) Clear() {
	m.entities = make(map[uint32]*Entity)
}
