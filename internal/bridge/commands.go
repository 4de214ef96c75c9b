package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-homematic/internal/homematic/central"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/client"
	"github.com/nerrad567/gray-logic-homematic/internal/homematic/entity"
)

// SwitchOnArgs are the parameters of turn_on for a switch.
type SwitchOnArgs struct {
	OnTime *float64 `json:"on_time,omitempty"`
}

// RunCommand runs a named command against a custom entity. An empty or
// null params is the same as no parameters.
func RunCommand(ctx context.Context, e entity.CustomEntity, command string, params json.RawMessage) error {
	if command == CommandRefresh {
		return e.LoadEntityValue(ctx)
	}

	switch ent := e.(type) {
	case *entity.Light:
		return runLight(ctx, ent, command, params)
	case *entity.Switch:
		return runSwitch(ctx, ent, command, params)
	case entity.CoverEntity:
		return runCover(ctx, ent, command, params)
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedEntity, command, e.Platform())
	}
}

func runLight(ctx context.Context, l *entity.Light, command string, params json.RawMessage) error {
	switch command {
	case CommandTurnOn:
		var args entity.LightOnArgs
		if err := decodeParams(params, &args); err != nil {
			return err
		}
		return l.TurnOn(ctx, args, nil)
	case CommandTurnOff:
		var args entity.LightOffArgs
		if err := decodeParams(params, &args); err != nil {
			return err
		}
		return l.TurnOff(ctx, args, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func runSwitch(ctx context.Context, s *entity.Switch, command string, params json.RawMessage) error {
	switch command {
	case CommandTurnOn:
		var args SwitchOnArgs
		if err := decodeParams(params, &args); err != nil {
			return err
		}
		return s.TurnOn(ctx, args.OnTime, nil)
	case CommandTurnOff:
		if err := decodeParams(params, &struct{}{}); err != nil {
			return err
		}
		return s.TurnOff(ctx, nil)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
}

func runCover(ctx context.Context, c entity.CoverEntity, command string, params json.RawMessage) error {
	if command == CommandSetPosition {
		var args entity.CoverPositionArgs
		if err := decodeParams(params, &args); err != nil {
			return err
		}
		return c.SetPosition(ctx, args, nil)
	}
	if err := decodeParams(params, &struct{}{}); err != nil {
		return err
	}

	switch command {
	case CommandOpen:
		return c.Open(ctx, nil)
	case CommandClose:
		return c.Close(ctx, nil)
	case CommandStop:
		return c.Stop(ctx, nil)
	}

	switch ent := c.(type) {
	case *entity.Cover:
		if !ent.HasTilt() {
			break
		}
		switch command {
		case CommandOpenTilt:
			return ent.OpenTilt(ctx, nil)
		case CommandCloseTilt:
			return ent.CloseTilt(ctx, nil)
		case CommandStopTilt:
			return ent.StopTilt(ctx, nil)
		}
	case *entity.Garage:
		if command == CommandVent {
			return ent.Vent(ctx, nil)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, command)
}

// decodeParams decodes params strictly into v.
func decodeParams(params json.RawMessage, v any) error {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	return nil
}

// ErrorCode maps a command error to an acknowledgement error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, central.ErrEntityNotFound):
		return ErrCodeNotConfigured
	case errors.Is(err, ErrUnknownCommand), errors.Is(err, ErrUnsupportedEntity), errors.Is(err, entity.ErrNoTilt):
		return ErrCodeInvalidCommand
	case errors.Is(err, ErrInvalidParameters):
		return ErrCodeInvalidParameters
	case errors.Is(err, client.ErrNotConnected):
		return ErrCodeDeviceUnreachable
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	default:
		return ErrCodeProtocolError
	}
}
