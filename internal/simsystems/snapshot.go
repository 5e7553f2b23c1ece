package simsystems

import (
	"sort"

	"github.com/ocx/backend/internal/components"
	"github.com/ocx/backend/internal/ecs"
	"github.com/ocx/backend/internal/protocol"
)

// SnapshotMTUBytes bounds a single snapshot message's encoded size,
// matching the ~1 KiB transport MTU assumption of spec.md §4.10.
const SnapshotMTUBytes = 1024

// perEntityBudget is a conservative estimate of one SnapshotEntity's
// encoded JSON size, used to decide how many entities fit per message
// without re-marshaling after every addition.
const perEntityBudget = 96

var networkedSig = ecs.NewSignature(ecs.ComponentIDFor[components.Networked]())

// Broadcaster sends an already-serialized message to every member of the
// owning lobby. Lobby implements this by calling its transport's Send for
// each member id.
type Broadcaster interface {
	Broadcast(text string)
}

// SnapshotSystem builds and broadcasts one (or, over the MTU, several
// sequence-tagged) snapshot message(s) per tick containing every
// Networked entity's replicated state.
type SnapshotSystem struct {
	broadcaster Broadcaster
}

func NewSnapshotSystem(b Broadcaster) *SnapshotSystem {
	return &SnapshotSystem{broadcaster: b}
}

func (s *SnapshotSystem) Signature() ecs.ComponentSignature { return networkedSig }

func (s *SnapshotSystem) Update(w *ecs.World, dt float64) {
	entities := w.EntitiesWith(networkedSig)
	if len(entities) == 0 {
		return
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })

	wireEntities := make([]protocol.SnapshotEntity, 0, len(entities))
	for _, e := range entities {
		tr, ok := ecs.GetComponent[components.Transform](w, e)
		if !ok {
			continue
		}
		se := protocol.SnapshotEntity{
			ID: uint32(e),
			Transform: protocol.TransformWire{
				X: tr.X, Y: tr.Y, Rotation: tr.Rotation, Scale: tr.Scale,
			},
		}
		if vel, ok := ecs.GetComponent[components.Velocity](w, e); ok {
			se.Velocity = &protocol.VelocityWire{DX: vel.DX, DY: vel.DY}
		}
		if hp, ok := ecs.GetComponent[components.Health](w, e); ok {
			se.Health = &protocol.HealthWire{HP: hp.HP, MaxHP: hp.MaxHP}
		}
		wireEntities = append(wireEntities, se)
	}

	segments := partition(wireEntities)
	for i, seg := range segments {
		msg := protocol.SnapshotMsg{
			Type:     protocol.TypeSnapshot,
			Entities: seg,
		}
		if len(segments) > 1 {
			msg.Seq = i
			msg.Of = len(segments)
		}
		s.broadcaster.Broadcast(protocol.MustEncode(msg))
	}
}

// partition deterministically splits entities (already id-sorted) into
// MTU-sized groups. Deterministic because the split point depends only on
// the sorted entity ids, not on tick-to-tick iteration order.
func partition(entities []protocol.SnapshotEntity) [][]protocol.SnapshotEntity {
	perSegment := SnapshotMTUBytes / perEntityBudget
	if perSegment < 1 {
		perSegment = 1
	}
	if len(entities) <= perSegment {
		return [][]protocol.SnapshotEntity{entities}
	}

	var segments [][]protocol.SnapshotEntity
	for i := 0; i < len(entities); i += perSegment {
		end := i + perSegment
		if end > len(entities) {
			end = len(entities)
		}
		segments = append(segments, entities[i:end])
	}
	return segments
}
