package collab

import (
	"fmt"

	"collab-server/core"
)

// Typed event payloads. The transport hands events over as loose
// map[string]any data; decoding and required-field validation happen here,
// once, before anything reaches the broadcast path. A payload that fails to
// decode is dropped with a log, never propagated as a connection error.

type (
	JoinPayload struct {
		UserID       string            `json:"userId"`
		UserName     string            `json:"userName"`
		ResourceType core.ResourceType `json:"resourceType"`
		ResourceID   string            `json:"resourceId"`
	}

	LeavePayload struct {
		UserID       string            `json:"userId"`
		ResourceType core.ResourceType `json:"resourceType"`
		ResourceID   string            `json:"resourceId"`
	}

	TypingPayload struct {
		UserID       string            `json:"userId"`
		UserName     string            `json:"userName"`
		ResourceType core.ResourceType `json:"resourceType"`
		ResourceID   string            `json:"resourceId"`
		Field        string            `json:"field"`
	}

	FieldUpdatePayload struct {
		UserID       string            `json:"userId"`
		UserName     string            `json:"userName"`
		ResourceType core.ResourceType `json:"resourceType"`
		ResourceID   string            `json:"resourceId"`
		Field        string            `json:"field"`
		Value        any               `json:"value"`
	}

	StatusChangePayload struct {
		UserID       string            `json:"userId"`
		UserName     string            `json:"userName"`
		ResourceType core.ResourceType `json:"resourceType"`
		ResourceID   string            `json:"resourceId"`
		OldStatus    string            `json:"oldStatus"`
		NewStatus    string            `json:"newStatus"`
	}
)

func DecodeJoin(data map[string]any) (JoinPayload, error) {
	var p JoinPayload
	var err error
	if p.UserID, err = stringField(data, "userId"); err != nil {
		return p, err
	}
	if p.UserName, err = stringField(data, "userName"); err != nil {
		return p, err
	}
	if p.ResourceType, err = resourceTypeField(data); err != nil {
		return p, err
	}
	p.ResourceID, err = stringField(data, "resourceId")
	return p, err
}

func DecodeLeave(data map[string]any) (LeavePayload, error) {
	var p LeavePayload
	var err error
	if p.UserID, err = stringField(data, "userId"); err != nil {
		return p, err
	}
	if p.ResourceType, err = resourceTypeField(data); err != nil {
		return p, err
	}
	p.ResourceID, err = stringField(data, "resourceId")
	return p, err
}

func DecodeTyping(data map[string]any) (TypingPayload, error) {
	var p TypingPayload
	var err error
	if p.UserID, err = stringField(data, "userId"); err != nil {
		return p, err
	}
	if p.UserName, err = stringField(data, "userName"); err != nil {
		return p, err
	}
	if p.ResourceType, err = resourceTypeField(data); err != nil {
		return p, err
	}
	if p.ResourceID, err = stringField(data, "resourceId"); err != nil {
		return p, err
	}
	p.Field, err = stringField(data, "field")
	return p, err
}

func DecodeFieldUpdate(data map[string]any) (FieldUpdatePayload, error) {
	var p FieldUpdatePayload
	var err error
	if p.UserID, err = stringField(data, "userId"); err != nil {
		return p, err
	}
	if p.UserName, err = stringField(data, "userName"); err != nil {
		return p, err
	}
	if p.ResourceType, err = resourceTypeField(data); err != nil {
		return p, err
	}
	if p.ResourceID, err = stringField(data, "resourceId"); err != nil {
		return p, err
	}
	if p.Field, err = stringField(data, "field"); err != nil {
		return p, err
	}
	p.Value = data["value"] // may legitimately be nil (field cleared)
	return p, nil
}

func DecodeStatusChange(data map[string]any) (StatusChangePayload, error) {
	var p StatusChangePayload
	var err error
	if p.UserID, err = stringField(data, "userId"); err != nil {
		return p, err
	}
	if p.UserName, err = stringField(data, "userName"); err != nil {
		return p, err
	}
	if p.ResourceType, err = resourceTypeField(data); err != nil {
		return p, err
	}
	if p.ResourceID, err = stringField(data, "resourceId"); err != nil {
		return p, err
	}
	if p.OldStatus, err = stringField(data, "oldStatus"); err != nil {
		return p, err
	}
	p.NewStatus, err = stringField(data, "newStatus")
	return p, err
}

func stringField(data map[string]any, key string) (string, error) {
	v, ok := data[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("missing required field %q", key)
	}
	return v, nil
}

func resourceTypeField(data map[string]any) (core.ResourceType, error) {
	v, err := stringField(data, "resourceType")
	if err != nil {
		return "", err
	}
	t := core.ResourceType(v)
	if !core.ValidResourceType(t) {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidResourceType, v)
	}
	return t, nil
}
