package storage

import (
	"context"

	"github.com/jwebster45206/heartbeat-engine/pkg/being"
	"github.com/jwebster45206/heartbeat-engine/pkg/world"
)

// Storage defines the persistence operations the heartbeat engine needs.
// Every save replaces one whole document; there are no multi-document transactions.
// Loads return (nil, nil) when the document does not exist.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Beings (characters and NPCs)
	LoadBeing(ctx context.Context, id string) (*being.Being, error)
	SaveBeing(ctx context.Context, b *being.Being) error
	ListNPCs(ctx context.Context, mainCharacterID string) ([]*being.Being, error)

	// Sandboxes
	LoadSandbox(ctx context.Context, id string) (*world.Sandbox, error)
	SaveSandbox(ctx context.Context, sb *world.Sandbox) error

	// History records
	CreateObject(ctx context.Context, obj *world.Object) error
	CreateWorldEvent(ctx context.Context, ev *world.Event) error
}
