package ops

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hpungsan/statustracker/internal/errors"
)

// UUIDInput contains parameters for the LookupUUID operation.
type UUIDInput struct {
	Name string
}

// UUIDOutput contains the result of the LookupUUID operation.
type UUIDOutput struct {
	Name       string               `json:"name"`
	UUID       string               `json:"uuid,omitempty"`
	Found      bool                 `json:"found"`
	Index      *int                 `json:"index,omitempty"` // position in the name map, if tracked
	Diagnostic *errors.TrackerError `json:"diagnostic,omitempty"`
}

// LookupUUID resolves a display name to its UUID and, when the entity is
// tracked, its name map index. An unknown name is reported through
// Diagnostic, not as an error.
func LookupUUID(ctx context.Context, src Source, input UUIDInput) (*UUIDOutput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}

	out := &UUIDOutput{Name: name}
	id, ok := src.PlayerUUID(ctx, name)
	if !ok {
		out.Diagnostic = errors.NewEntityNotFound(name, "no uuid for name")
		slog.Info("uuid lookup missed", "name", name)
		return out, nil
	}
	out.UUID = id
	out.Found = true

	if nm := src.NameMap(ctx); nm != nil {
		if idx, ok := nm.Index(id); ok {
			out.Index = &idx
		}
	}
	return out, nil
}
