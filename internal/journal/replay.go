package journal

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/avialog/partregistry/internal/registry"
)

// Report summarizes a journal replay.
type Report struct {
	Events   int
	Mints    int
	Updates  int
	Burns    int
	LastSeq  int64
	Registry *registry.Registry // the rebuilt registry
}

// Replay rebuilds a registry by re-applying the journaled events in order.
// admin is the genesis administrator (registry construction predates the
// first event, so it is not in the journal).
//
// Replay verifies coherence as it goes: every re-applied operation must
// succeed, and a replayed mint must yield the identifier the original
// emission recorded. Any divergence means the journal is incomplete or was
// recorded against different genesis state.
func Replay(ctx context.Context, j *Journal, admin registry.Identity) (*Report, error) {
	entries, err := j.ReadTrace(ctx)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(admin)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	report := &Report{Registry: reg}
	for i, e := range entries {
		if err := applyEntry(ctx, reg, e, report); err != nil {
			return nil, fmt.Errorf("replay diverged at event %d (%s %s): %w", i, e.ID, e.Name, err)
		}
		report.Events++
		if e.Seq > report.LastSeq {
			report.LastSeq = e.Seq
		}
	}
	return report, nil
}

func applyEntry(ctx context.Context, reg *registry.Registry, e Entry, report *Report) error {
	call := registry.Call{Caller: e.Actor, Seq: e.Seq}

	switch e.Name {
	case registry.EventPartMinted:
		spec, err := blobField(e, "specification")
		if err != nil {
			return err
		}
		id, err := reg.Mint(ctx, call, registry.Identity(stringField(e, "to")), registry.MintRequest{
			Serial:        stringField(e, "serial"),
			Manufacturer:  stringField(e, "manufacturer"),
			Specification: spec,
			Status:        registry.Status(stringField(e, "status")),
		})
		if err != nil {
			return err
		}
		if id != e.Part {
			return fmt.Errorf("minted identifier %d, journal recorded %d", id, e.Part)
		}
		report.Mints++
		return nil

	case registry.EventPartUpdated:
		var u registry.Update
		if s, ok := e.Payload["serial"]; ok {
			u.Serial = registry.Set(asString(s))
		}
		if m, ok := e.Payload["manufacturer"]; ok {
			u.Manufacturer = registry.Set(asString(m))
		}
		if _, ok := e.Payload["specification"]; ok {
			spec, err := blobField(e, "specification")
			if err != nil {
				return err
			}
			u.Specification = registry.Set(spec)
		}
		if s, ok := e.Payload["status"]; ok {
			u.Status = registry.Set(registry.Status(asString(s)))
		}
		notes, err := blobField(e, "notes")
		if err != nil {
			return err
		}
		u.Notes = notes
		if err := reg.UpdateMetadata(ctx, call, e.Part, u); err != nil {
			return err
		}
		report.Updates++
		return nil

	case registry.EventPartBurned:
		if err := reg.Burn(ctx, call, e.Part); err != nil {
			return err
		}
		report.Burns++
		return nil

	case registry.EventAdminTransferred:
		return reg.TransferAdministration(ctx, call, registry.Identity(stringField(e, "new")))

	case registry.EventRegistryPaused:
		paused, _ := e.Payload["paused"].(bool)
		_, err := reg.SetPaused(ctx, call, paused)
		return err

	case registry.EventWriterSet:
		authorized, _ := e.Payload["authorized"].(bool)
		return reg.SetAuthorizedWriter(ctx, call, registry.Identity(stringField(e, "writer")), authorized)

	default:
		return fmt.Errorf("unknown event name %q", e.Name)
	}
}

func stringField(e Entry, key string) string {
	return asString(e.Payload[key])
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func blobField(e Entry, key string) ([]byte, error) {
	encoded := stringField(e, key)
	if encoded == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("field %q is not base64: %w", key, err)
	}
	return b, nil
}
