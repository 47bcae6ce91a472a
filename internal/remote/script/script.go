// Package script implements the remote facade by shelling out to an
// external browser-automation driver. Each operation execs the configured
// command with a JSON request on stdin and reads a JSON reply from stdout,
// keeping the UI mechanics (selectors, navigation, confirmation dialogs)
// entirely outside this binary.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/marcus/wo/internal/remote"
)

// Driver runs one remote session through an external automation command.
// Not safe for concurrent use; the remote view is shared mutable state and
// all callers are strictly sequential.
type Driver struct {
	// Command is the driver invocation, split on whitespace; the first
	// token is the executable.
	Command string

	generation uint64
}

// request is the wire format sent to the driver command.
type request struct {
	Op          string `json:"op"`
	URL         string `json:"url,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	WorkOrderID string `json:"work_order,omitempty"`
	RemoteID    string `json:"remote_id,omitempty"`
	VerbCode    int    `json:"verb_code,omitempty"`
	NounCode    *int   `json:"noun_code,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
	Minutes     *int   `json:"minutes,omitempty"`
	Note        string `json:"note,omitempty"`
}

// record mirrors remote.ServiceRecord on the wire.
type record struct {
	RemoteID          string `json:"remote_id"`
	Servicer          string `json:"servicer"`
	VerbCode          int    `json:"verb_code"`
	Timestamp         string `json:"timestamp"`
	ElapsedMinutes    int    `json:"elapsed_minutes"`
	Description       string `json:"description"`
	HasLinkedSubItems bool   `json:"has_linked_sub_items"`
}

// response is the wire format read back from the driver command.
type response struct {
	OK           bool     `json:"ok"`
	Error        string   `json:"error,omitempty"`
	Transient    bool     `json:"transient,omitempty"`
	AuthRequired bool     `json:"auth_required,omitempty"`
	Records      []record `json:"records,omitempty"`
}

// Login authenticates the driver session.
func (d *Driver) Login(ctx context.Context, creds remote.Credentials) error {
	_, err := d.run(ctx, request{
		Op:       "login",
		URL:      creds.URL,
		Username: creds.Username,
		Password: creds.Password,
	})
	return err
}

// ExtractServiceRecords reads the currently visible service records for a
// work order. The returned snapshot is tied to the driver's current view
// generation.
func (d *Driver) ExtractServiceRecords(ctx context.Context, workOrderID string) (*remote.Snapshot, error) {
	resp, err := d.run(ctx, request{Op: "extract", WorkOrderID: workOrderID})
	if err != nil {
		return nil, err
	}

	records := make([]remote.ServiceRecord, len(resp.Records))
	for i, r := range resp.Records {
		records[i] = remote.ServiceRecord{
			RemoteID:          r.RemoteID,
			Servicer:          r.Servicer,
			VerbCode:          r.VerbCode,
			Timestamp:         r.Timestamp,
			ElapsedMinutes:    r.ElapsedMinutes,
			Description:       r.Description,
			HasLinkedSubItems: r.HasLinkedSubItems,
		}
	}
	return remote.NewSnapshot(workOrderID, records, d.generation), nil
}

// CreateServiceRecord creates a new remote record. Any earlier snapshot is
// invalidated.
func (d *Driver) CreateServiceRecord(ctx context.Context, workOrderID string, svc remote.NewService) error {
	minutes := svc.ElapsedMinutes
	_, err := d.run(ctx, request{
		Op:          "create",
		WorkOrderID: workOrderID,
		VerbCode:    svc.VerbCode,
		NounCode:    svc.NounCode,
		Timestamp:   svc.Timestamp,
		Minutes:     &minutes,
		Note:        svc.Note,
	})
	if err != nil {
		return err
	}
	d.generation++
	return nil
}

// EditServiceRecord edits fields of an existing record addressed by a
// current-snapshot handle.
func (d *Driver) EditServiceRecord(ctx context.Context, h remote.Handle, edit remote.FieldEdit) error {
	if err := d.checkHandle(h); err != nil {
		return err
	}
	_, err := d.run(ctx, request{
		Op:       "edit",
		RemoteID: h.Record().RemoteID,
		Minutes:  edit.ElapsedMinutes,
	})
	if err != nil {
		return err
	}
	d.generation++
	return nil
}

// DeleteServiceRecord deletes a record addressed by a current-snapshot
// handle.
func (d *Driver) DeleteServiceRecord(ctx context.Context, h remote.Handle) error {
	if err := d.checkHandle(h); err != nil {
		return err
	}
	_, err := d.run(ctx, request{Op: "delete", RemoteID: h.Record().RemoteID})
	if err != nil {
		return err
	}
	d.generation++
	return nil
}

// checkHandle rejects handles minted from a superseded snapshot before any
// remote interaction happens.
func (d *Driver) checkHandle(h remote.Handle) error {
	snap := h.Snapshot()
	if snap == nil || snap.Generation() != d.generation {
		return remote.ErrStaleSnapshot
	}
	return nil
}

// run execs the driver command with req on stdin and decodes the reply.
func (d *Driver) run(ctx context.Context, req request) (*response, error) {
	if d.Command == "" {
		return nil, fmt.Errorf("no remote driver configured: set driver_command via 'wo login'")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode driver request: %w", err)
	}

	parts := strings.Fields(d.Command)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &remote.InteractionError{
			Op:     req.Op,
			Reason: fmt.Sprintf("driver exited: %v (%s)", err, strings.TrimSpace(stderr.String())),
		}
	}

	var resp response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, &remote.InteractionError{
			Op:     req.Op,
			Reason: fmt.Sprintf("bad driver reply: %v", err),
		}
	}

	if !resp.OK {
		if resp.AuthRequired {
			return nil, &remote.AuthError{Reason: resp.Error}
		}
		if resp.Transient {
			return nil, &remote.InteractionError{Op: req.Op, Reason: resp.Error}
		}
		return nil, fmt.Errorf("remote %s failed: %s", req.Op, resp.Error)
	}

	return &resp, nil
}
