package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/shelf/internal/formatter"
	"github.com/desertthunder/shelf/internal/models"
	"github.com/desertthunder/shelf/internal/shared"
	"github.com/desertthunder/shelf/internal/tasks"
	"github.com/urfave/cli/v3"
)

// relationshipView is the serialized form of [tasks.RelationshipResult].
type relationshipView struct {
	Operation       tasks.Operation `json:"operation"`
	Viewer          string          `json:"viewer"`
	Target          string          `json:"target"`
	Outcome         tasks.Outcome   `json:"outcome"`
	ViewerError     string          `json:"viewer_error,omitempty"`
	TargetError     string          `json:"target_error,omitempty"`
	Compensated     bool            `json:"compensated"`
	CompensationErr string          `json:"compensation_error,omitempty"`
	Journaled       bool            `json:"journaled"`
	ViewerRecord    *models.UserRef `json:"viewer_record,omitempty"`
	TargetRecord    *models.UserRef `json:"target_record,omitempty"`
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func newRelationshipView(res *tasks.RelationshipResult) relationshipView {
	return relationshipView{
		Operation:       res.Operation,
		Viewer:          res.Viewer,
		Target:          res.Target,
		Outcome:         res.Outcome,
		ViewerError:     errString(res.ViewerErr),
		TargetError:     errString(res.TargetErr),
		Compensated:     res.Compensated,
		CompensationErr: errString(res.CompensationErr),
		Journaled:       res.Journaled,
		ViewerRecord:    res.ViewerRecord,
		TargetRecord:    res.TargetRecord,
	}
}

// UserShow prints the relationship view of a profile; the argument defaults to the acting user.
func (r *Runner) UserShow(ctx context.Context, cmd *cli.Command) error {
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(cmd.StringArg("username"))
	if name == "" {
		if name, err = r.viewer(cmd); err != nil {
			return err
		}
	}

	user, err := r.engine.Relationships.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", name, err)
	}
	return r.write(formatter.User(f, *user))
}

// Relationship returns the action for op. The outcome is printed even when the operation fails or applies partially.
func (r *Runner) Relationship(op tasks.Operation) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		f, err := r.format(cmd)
		if err != nil {
			return err
		}
		viewer, err := r.viewer(cmd)
		if err != nil {
			return err
		}
		target := strings.TrimSpace(cmd.StringArg("target"))
		if target == "" {
			return fmt.Errorf("%w: target username", shared.ErrMissingArgument)
		}

		res, err := r.engine.Relationships.Run(ctx, op, viewer, target)
		if res != nil {
			if werr := r.writeRelationship(f, res); werr != nil {
				return errors.Join(err, werr)
			}
		}
		return err
	}
}

func (r *Runner) writeRelationship(f formatter.Format, res *tasks.RelationshipResult) error {
	if f == formatter.FormatJSON {
		return r.write(formatter.ToJSON(newRelationshipView(res)))
	}

	switch res.Outcome {
	case tasks.OutcomeApplied:
		return r.writePlain("✓ %s %s %s\n", res.Viewer, res.Operation, res.Target)
	case tasks.OutcomeFailed:
		return r.writePlain("✗ %s %s %s failed, no record changed\n", res.Viewer, res.Operation, res.Target)
	}

	r.writePlain("! %s %s %s applied to one record only\n", res.Viewer, res.Operation, res.Target)
	if res.ViewerErr != nil {
		r.writePlain("  %s: %v\n", res.Viewer, res.ViewerErr)
	}
	if res.TargetErr != nil {
		r.writePlain("  %s: %v\n", res.Target, res.TargetErr)
	}

	switch {
	case res.Compensated:
		return r.writePlain("  restored the updated record, retry the operation\n")
	case res.Journaled:
		return r.writePlain("  recorded as a divergence, see 'shelf divergences list'\n")
	default:
		return r.writePlain("  records disagree until the operation is retried\n")
	}
}

// DivergencesList prints unresolved partial updates.
func (r *Runner) DivergencesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	f, err := r.format(cmd)
	if err != nil {
		return err
	}

	divs, err := r.journal.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to list divergences: %w", err)
	}

	if f == formatter.FormatJSON {
		return r.write(formatter.ToJSON(divs))
	}

	r.writePlainHeader(fmt.Sprintf("Divergences (%d)", len(divs)))
	for _, d := range divs {
		r.writePlain("%s  %s %s %s  applied=%s failed=%s  %s\n",
			d.ID, d.Viewer, d.Operation, d.Target, d.AppliedSide, d.FailedSide, d.CreatedAt.Format("2006-01-02 15:04"))
		if d.Error != "" {
			r.writePlain("    %s\n", d.Error)
		}
	}
	return nil
}

// DivergencesResolve marks a divergence as resolved.
func (r *Runner) DivergencesResolve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: divergence id", shared.ErrMissingArgument)
	}

	if err := r.journal.Resolve(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ resolved %s\n", id)
}
