package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"rentchain-backend/internal/service"
)

const notificationServiceName = "rentchain.v1.NotificationService"

type NotificationHandler struct {
	noteSvc  service.NotificationService
	eventSvc service.EventService
}

func NewNotificationHandler(noteSvc service.NotificationService, eventSvc service.EventService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc, eventSvc: eventSvc}
}

func (h *NotificationHandler) ServiceDesc() *grpc.ServiceDesc {
	return serviceDesc(notificationServiceName,
		method{"GetNotifications", h.GetNotifications},
		method{"MarkNotificationRead", h.MarkNotificationRead},
		method{"ListEvents", h.ListEvents},
	)
}

func (h *NotificationHandler) GetNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	page := r.Int32("page")
	pageSize := r.Int32("page_size")
	if err := r.err(); err != nil {
		return nil, err
	}
	notes, count, err := h.noteSvc.GetNotifications(ctx, caller.AccountID, page, pageSize)
	if err != nil {
		return nil, err
	}
	protoNotes := make([]any, len(notes))
	for i := range notes {
		protoNotes[i] = MapDomainNotificationToProto(&notes[i])
	}
	return toStruct(map[string]any{
		"notifications": protoNotes,
		"total_count":   count,
	})
}

func (h *NotificationHandler) MarkNotificationRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := GetCallerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	r := newRequest(req)
	id := r.RequiredInt64("notification_id")
	if err := r.err(); err != nil {
		return nil, err
	}
	if err := h.noteSvc.MarkAsRead(ctx, caller.AccountID, id); err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"success": true})
}

func (h *NotificationHandler) ListEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	r := newRequest(req)
	after := r.Int64("after_seq")
	limit := r.Int32("limit")
	if err := r.err(); err != nil {
		return nil, err
	}
	events, err := h.eventSvc.ListEvents(ctx, after, limit)
	if err != nil {
		return nil, err
	}
	protoEvents := make([]any, len(events))
	for i := range events {
		protoEvents[i] = MapDomainEventToProto(&events[i])
	}
	return toStruct(map[string]any{"events": protoEvents})
}
