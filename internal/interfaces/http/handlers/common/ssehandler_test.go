package common

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/domain/shared/events"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/logger"
)

func workflowEvent(subAuthority string, actorID uint) events.WorkflowEvent {
	evt := events.NewWorkflowEvent(events.EventApprovalRequested, "ar_1", time.Now())
	evt.RequestID = "ar_1"
	evt.SubAuthority = subAuthority
	evt.ActorID = actorID
	return evt
}

func TestCanSee(t *testing.T) {
	bole := authorization.Actor{UserID: 1, Role: authorization.RoleSubcityApprover, SubAuthority: "BOLE"}
	admin := authorization.Actor{UserID: 2, Role: authorization.RoleCityAdmin}

	tests := []struct {
		name  string
		actor authorization.Actor
		event events.WorkflowEvent
		want  bool
	}{
		{name: "same sub-authority", actor: bole, event: workflowEvent("BOLE", 9), want: true},
		{name: "other sub-authority", actor: bole, event: workflowEvent("YEKA", 9), want: false},
		{name: "own action elsewhere", actor: bole, event: workflowEvent("YEKA", 1), want: true},
		{name: "city-wide event", actor: bole, event: workflowEvent("", 9), want: true},
		{name: "admin sees all", actor: admin, event: workflowEvent("YEKA", 9), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canSee(tt.actor, tt.event))
		})
	}
}

func TestInboxHub_DeliverScoped(t *testing.T) {
	hub := NewInboxHub(logger.NewNopLogger())

	boleID, bole, err := hub.Register(authorization.Actor{UserID: 1, Role: authorization.RoleSubcityApprover, SubAuthority: "BOLE"})
	require.NoError(t, err)
	defer hub.Unregister(boleID)
	yekaID, yeka, err := hub.Register(authorization.Actor{UserID: 2, Role: authorization.RoleSubcityApprover, SubAuthority: "YEKA"})
	require.NoError(t, err)
	defer hub.Unregister(yekaID)

	hub.Deliver(context.Background(), workflowEvent("BOLE", 7))

	select {
	case data := <-bole:
		frame := string(data)
		assert.True(t, strings.HasPrefix(frame, "event: "+events.EventApprovalRequested+"\n"))
		assert.Contains(t, frame, `"request_id":"ar_1"`)
		assert.True(t, strings.HasSuffix(frame, "\n\n"))
	default:
		t.Fatal("expected BOLE stream to receive the event")
	}

	select {
	case <-yeka:
		t.Fatal("YEKA stream must not see BOLE traffic")
	default:
	}
}

func TestInboxHub_HandleDeliversWorkflowEvents(t *testing.T) {
	hub := NewInboxHub(logger.NewNopLogger())
	connID, send, err := hub.Register(authorization.Actor{UserID: 1, Role: authorization.RoleSuperAdmin})
	require.NoError(t, err)
	defer hub.Unregister(connID)

	require.NoError(t, hub.Handle(context.Background(), workflowEvent("", 3)))
	assert.Len(t, send, 1)
}

func TestInboxHub_PerUserLimit(t *testing.T) {
	hub := NewInboxHub(logger.NewNopLogger())
	actor := authorization.Actor{UserID: 5, Role: authorization.RoleSubcityNormal, SubAuthority: "BOLE"}

	ids := make([]string, 0, MaxInboxConnsPerUser)
	for i := 0; i < MaxInboxConnsPerUser; i++ {
		id, _, err := hub.Register(actor)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	_, _, err := hub.Register(actor)
	assert.Error(t, err)

	_, _, err = hub.Register(authorization.Actor{UserID: 6, Role: authorization.RoleSubcityNormal})
	assert.NoError(t, err, "limit is per user")

	hub.Unregister(ids[0])
	_, _, err = hub.Register(actor)
	assert.NoError(t, err)
}

func TestInboxHub_UnregisterClosesStream(t *testing.T) {
	hub := NewInboxHub(logger.NewNopLogger())
	connID, send, err := hub.Register(authorization.Actor{UserID: 1, Role: authorization.RoleSubcityNormal})
	require.NoError(t, err)
	assert.Equal(t, 1, hub.ConnCount())

	hub.Unregister(connID)
	hub.Unregister(connID)

	_, open := <-send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ConnCount())
}
