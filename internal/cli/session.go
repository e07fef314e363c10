package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
)

// ListSessions prints the stored session IDs.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No active sessions found.")
		return nil
	}
	fmt.Fprintln(w, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(w, "- "+id)
	}
	return nil
}

// sessionView adds the derived phase to the stored session.
type sessionView struct {
	*domain.Session
	Phase domain.Phase `json:"phase"`
}

// InspectSession pretty-prints one session as JSON.
func InspectSession(ctx context.Context, store ports.SessionStore, id string, w io.Writer) error {
	sess, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(sessionView{Session: sess, Phase: sess.Phase()}, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes each session, reporting every failure.
// With all set, ids is ignored and every stored session is removed.
func RemoveSessions(ctx context.Context, store ports.SessionStore, ids []string, all bool, w io.Writer) error {
	if all {
		listed, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		ids = listed
	}

	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}
