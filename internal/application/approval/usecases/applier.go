package usecases

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/landreg/cadastre/internal/application/ownership/dto"
	"github.com/landreg/cadastre/internal/application/ownership/services"
	"github.com/landreg/cadastre/internal/domain/approval"
	"github.com/landreg/cadastre/internal/domain/registration"
)

// Command is a gated ownership mutation.
type Command interface {
	Validate() error
}

// Outcome is what applying a command produced.
type Outcome struct {
	ParcelID uint
	Result   any
}

// Applier replays commands, immediate or approved, through the ownership
// engine.
type Applier struct {
	engine *services.Engine
}

func NewApplier(engine *services.Engine) *Applier {
	return &Applier{engine: engine}
}

// ActionFor maps a command to the action its policy is keyed by.
func ActionFor(cmd Command) (approval.Action, error) {
	switch cmd.(type) {
	case services.RegisterParcelCommand, *services.RegisterParcelCommand:
		return approval.ActionRegisterParcel, nil
	case services.LinkOwnerCommand, *services.LinkOwnerCommand:
		return approval.ActionAddCoOwner, nil
	case services.TransferCommand, *services.TransferCommand:
		return approval.ActionTransferOwnership, nil
	case services.SubdivideCommand, *services.SubdivideCommand:
		return approval.ActionSubdivideParcel, nil
	case services.UpdateShareCommand, *services.UpdateShareCommand:
		return approval.ActionUpdateShare, nil
	case services.EncumbranceCommand, *services.EncumbranceCommand:
		return approval.ActionRegisterEncumbrance, nil
	case services.ReleaseEncumbranceCommand, *services.ReleaseEncumbranceCommand:
		return approval.ActionReleaseEncumbrance, nil
	}
	return "", fmt.Errorf("unsupported command %T", cmd)
}

// EntityRef names the entity a command targets in the approval inbox.
func EntityRef(cmd Command) string {
	switch c := deref(cmd).(type) {
	case services.RegisterParcelCommand:
		return c.Parcel.UPIN
	case services.LinkOwnerCommand:
		return c.UPIN
	case services.TransferCommand:
		return c.UPIN
	case services.SubdivideCommand:
		return strings.TrimSpace(c.ParentUPIN)
	case services.UpdateShareCommand:
		return strconv.FormatUint(uint64(c.OwnershipID), 10)
	case services.EncumbranceCommand:
		return c.UPIN
	case services.ReleaseEncumbranceCommand:
		return strconv.FormatUint(uint64(c.EncumbranceID), 10)
	}
	return ""
}

// ApplyCommand runs cmd through the engine.
func (a *Applier) ApplyCommand(ctx context.Context, cmd Command) (*Outcome, error) {
	switch c := deref(cmd).(type) {
	case services.RegisterParcelCommand:
		res, err := a.engine.RegisterParcel(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: res.Parcel.ID(), Result: res.Response()}, nil
	case services.LinkOwnerCommand:
		edge, err := a.engine.CreateInitialOwnership(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: edge.ParcelID(), Result: dto.ToOwnershipResponse(edge, nil)}, nil
	case services.TransferCommand:
		res, err := a.engine.TransferOwnership(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: res.ParcelID, Result: res.Response()}, nil
	case services.SubdivideCommand:
		res, err := a.engine.SubdivideParcel(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: res.Parent.ID(), Result: res.Response()}, nil
	case services.UpdateShareCommand:
		edge, err := a.engine.UpdateShare(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: edge.ParcelID(), Result: dto.ToOwnershipResponse(edge, nil)}, nil
	case services.EncumbranceCommand:
		enc, err := a.engine.RegisterEncumbrance(ctx, c)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: enc.ParcelID(), Result: dto.ToEncumbranceResponse(enc)}, nil
	case services.ReleaseEncumbranceCommand:
		enc, err := a.engine.ReleaseEncumbrance(ctx, c.EncumbranceID)
		if err != nil {
			return nil, err
		}
		return &Outcome{ParcelID: enc.ParcelID(), Result: dto.ToEncumbranceResponse(enc)}, nil
	}
	return nil, fmt.Errorf("unsupported command %T", cmd)
}

// Decode rebuilds the command frozen in req.
func (a *Applier) Decode(req *approval.Request) (Command, error) {
	var cmd Command
	switch req.Action() {
	case approval.ActionRegisterParcel:
		var snap registration.Snapshot
		if err := req.DecodeData(&snap); err != nil {
			return nil, err
		}
		return services.RegisterParcelCommandFrom(snap), nil
	case approval.ActionAddCoOwner:
		var c services.LinkOwnerCommand
		err := req.DecodeData(&c)
		cmd = c
		return cmd, err
	case approval.ActionTransferOwnership:
		var c services.TransferCommand
		err := req.DecodeData(&c)
		cmd = c
		return cmd, err
	case approval.ActionSubdivideParcel:
		var c services.SubdivideCommand
		err := req.DecodeData(&c)
		cmd = c
		return cmd, err
	case approval.ActionUpdateShare:
		var c services.UpdateShareCommand
		err := req.DecodeData(&c)
		cmd = c
		return cmd, err
	case approval.ActionRegisterEncumbrance:
		var c services.EncumbranceCommand
		err := req.DecodeData(&c)
		cmd = c
		return cmd, err
	case approval.ActionReleaseEncumbrance:
		var c services.ReleaseEncumbranceCommand
		err := req.DecodeData(&c)
		cmd = c
		return cmd, err
	}
	return nil, fmt.Errorf("unknown action %s", req.Action())
}

// LockKeys lists the parcels applying cmd touches. Locks must be taken
// before the decision transaction opens.
func (a *Applier) LockKeys(ctx context.Context, cmd Command) []string {
	switch c := deref(cmd).(type) {
	case services.RegisterParcelCommand:
		return []string{c.Parcel.UPIN}
	case services.LinkOwnerCommand:
		return []string{c.UPIN}
	case services.TransferCommand:
		return []string{c.UPIN}
	case services.SubdivideCommand:
		return c.UPINs()
	case services.UpdateShareCommand:
		// An edge that no longer resolves fails on apply.
		upin, err := a.engine.ParcelUPINForOwnership(ctx, c.OwnershipID)
		if err != nil {
			return nil
		}
		return []string{upin}
	case services.EncumbranceCommand:
		return []string{c.UPIN}
	case services.ReleaseEncumbranceCommand:
		upin, err := a.engine.ParcelUPINForEncumbrance(ctx, c.EncumbranceID)
		if err != nil {
			return nil
		}
		return []string{upin}
	}
	return nil
}

func deref(cmd Command) Command {
	switch c := cmd.(type) {
	case *services.RegisterParcelCommand:
		return *c
	case *services.LinkOwnerCommand:
		return *c
	case *services.TransferCommand:
		return *c
	case *services.SubdivideCommand:
		return *c
	case *services.UpdateShareCommand:
		return *c
	case *services.EncumbranceCommand:
		return *c
	case *services.ReleaseEncumbranceCommand:
		return *c
	}
	return cmd
}
