package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"pmms-backend/internal/model"
)

// inboundReading is the raw client message. Value stays a RawMessage so
// field presence and per-type shape can be checked as separate stages.
type inboundReading struct {
	ID    string           `json:"id"`
	Type  string           `json:"type"`
	Value *json.RawMessage `json:"value"`
}

// pipelineError tags a validation failure with the response text for
// the client and a result label for the message counters.
type pipelineError struct {
	result  string
	message string
	detail  string
}

// validate runs the fixed six-stage validation pipeline over one
// message: parse, field presence, type validity, registry existence,
// declared-vs-registered type match, then type-specific value range.
// The first failing stage short-circuits.
func (s *Server) validate(ctx context.Context, line []byte) (*model.Reading, *pipelineError) {
	msg, perr := parseMessage(line)
	if perr != nil {
		return nil, perr
	}
	if perr := checkFields(msg); perr != nil {
		return nil, perr
	}
	if perr := checkType(msg); perr != nil {
		return nil, perr
	}
	machine, perr := s.lookupMachine(ctx, msg.ID)
	if perr != nil {
		return nil, perr
	}
	if perr := checkTypeMatch(machine, msg); perr != nil {
		return nil, perr
	}
	value, perr := checkValue(msg)
	if perr != nil {
		return nil, perr
	}

	return &model.Reading{
		MachineID: msg.ID,
		Type:      model.MachineType(msg.Type),
		Value:     value,
	}, nil
}

func parseMessage(line []byte) (*inboundReading, *pipelineError) {
	var msg inboundReading
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, &pipelineError{
			result:  "malformed",
			message: "Invalid JSON message",
			detail:  err.Error(),
		}
	}
	return &msg, nil
}

func checkFields(msg *inboundReading) *pipelineError {
	if msg.ID == "" || msg.Type == "" || msg.Value == nil {
		return &pipelineError{
			result:  "missing_fields",
			message: "Missing required fields: id, type, value",
		}
	}
	return nil
}

func checkType(msg *inboundReading) *pipelineError {
	if !model.ValidType(msg.Type) {
		return &pipelineError{
			result:  "invalid_type",
			message: "Invalid type. Must be: onoff, counter, or current",
		}
	}
	return nil
}

func (s *Server) lookupMachine(ctx context.Context, id string) (*model.Machine, *pipelineError) {
	machine, err := s.store.FindMachine(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &pipelineError{
			result:  "unknown_machine",
			message: fmt.Sprintf("Machine %s not found", id),
		}
	}
	if err != nil {
		return nil, &pipelineError{
			result:  "lookup_error",
			message: "Error processing data",
			detail:  err.Error(),
		}
	}
	return machine, nil
}

func checkTypeMatch(machine *model.Machine, msg *inboundReading) *pipelineError {
	if machine.MachineType != model.MachineType(msg.Type) {
		return &pipelineError{
			result:  "type_mismatch",
			message: fmt.Sprintf("Machine type mismatch. Expected %s, got %s", machine.MachineType, msg.Type),
		}
	}
	return nil
}

func checkValue(msg *inboundReading) (float64, *pipelineError) {
	var value float64
	if err := json.Unmarshal(*msg.Value, &value); err != nil {
		return 0, invalidValue(msg.Type)
	}

	switch model.MachineType(msg.Type) {
	case model.TypeOnOff:
		if value != 0 && value != 1 {
			return 0, invalidValue(msg.Type)
		}
	case model.TypeCounter:
		if value < 0 || value != math.Trunc(value) {
			return 0, invalidValue(msg.Type)
		}
	case model.TypeCurrent:
		if value < 0 {
			return 0, invalidValue(msg.Type)
		}
	}
	return value, nil
}

func invalidValue(machineType string) *pipelineError {
	perr := &pipelineError{result: "invalid_value"}
	switch model.MachineType(machineType) {
	case model.TypeOnOff:
		perr.message = "For onoff type, value must be 0 or 1"
	case model.TypeCounter:
		perr.message = "For counter type, value must be a non-negative integer"
	default:
		perr.message = "For current type, value must be a non-negative number"
	}
	return perr
}
