package session

import (
	"testing"

	"github.com/yourusername/httpcore/pkg/httpcore/queue"
)

func TestNewAssignsIdentityAndDefaults(t *testing.T) {
	c := New(RoleServer)
	if c.ID == "" {
		t.Fatal("New() left ID empty")
	}
	if c.Role != RoleServer {
		t.Fatalf("Role = %v, want RoleServer", c.Role)
	}
	if c.Phase != PhaseListen {
		t.Fatalf("Phase = %v, want PhaseListen", c.Phase)
	}
	if c.HTTP != StateIdle {
		t.Fatalf("HTTP = %v, want StateIdle", c.HTTP)
	}
	if c.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not set")
	}
}

func TestNewAssignsDistinctIDs(t *testing.T) {
	a, b := New(RoleServer), New(RoleClient)
	if a.ID == b.ID {
		t.Fatal("two connections got the same ID")
	}
}

func TestResetClearsTransactionState(t *testing.T) {
	c := New(RoleServer)
	c.Offsets = ParsedOffsets{BodyLen: 42}
	c.ToRecv = 10

	c.Reset()

	if c.Offsets != (ParsedOffsets{}) {
		t.Fatalf("Offsets not cleared: %+v", c.Offsets)
	}
	if c.ToRecv != 0 {
		t.Fatalf("ToRecv = %d, want 0", c.ToRecv)
	}
}

func TestArmDrainWithNoRedriveArmsNoop(t *testing.T) {
	c := New(RoleServer)
	q := queue.NewByteFIFO(16, 8)
	c.ArmDrain(q)

	q.Enqueue([]byte("12345678"))
	out := make([]byte, 8)
	q.Dequeue(out) // must not panic even though Redrive is nil
}

func TestArmDrainInvokesRedriveOnDrain(t *testing.T) {
	c := New(RoleServer)
	redriven := false
	c.Redrive = func() { redriven = true }
	q := queue.NewByteFIFO(16, 8)
	c.ArmDrain(q)

	q.Enqueue([]byte("12345678"))
	out := make([]byte, 8)
	q.Dequeue(out)
	if !redriven {
		t.Fatal("ArmDrain's callback did not invoke Redrive on drain")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(RoleServer)
	c.TransportRx = queue.NewByteFIFO(16, 0)
	c.TransportTx = queue.NewByteFIFO(16, 0)
	c.AppRx = queue.NewByteFIFO(16, 0)
	c.AppTx = queue.NewByteFIFO(16, 0)

	c.Close()
	if c.Phase != PhaseClosed {
		t.Fatalf("Phase = %v, want PhaseClosed", c.Phase)
	}
	c.Close() // must not panic on a queue already cancelled.
	if c.Phase != PhaseClosed {
		t.Fatalf("Phase after second Close = %v, want PhaseClosed", c.Phase)
	}
}

func TestCloseCancelsDrainNotifications(t *testing.T) {
	c := New(RoleServer)
	c.TransportRx = queue.NewByteFIFO(16, 0)
	fired := false
	c.TransportRx.NotifyOnDrain(func() { fired = true })

	c.Close()

	c.TransportRx.Enqueue([]byte("x"))
	out := make([]byte, 1)
	c.TransportRx.Dequeue(out)
	if fired {
		t.Fatal("drain notification fired after Close cancelled it")
	}
}

func TestRoleString(t *testing.T) {
	if RoleServer.String() != "server" {
		t.Fatalf("RoleServer.String() = %q, want server", RoleServer.String())
	}
	if RoleClient.String() != "client" {
		t.Fatalf("RoleClient.String() = %q, want client", RoleClient.String())
	}
}

func TestHTTPStateString(t *testing.T) {
	cases := map[HTTPState]string{
		StateIdle:             "IDLE",
		StateWaitAppMethod:    "WAIT_APP_METHOD",
		StateWaitClientMethod: "WAIT_CLIENT_METHOD",
		StateWaitServerReply:  "WAIT_SERVER_REPLY",
		StateWaitAppReply:     "WAIT_APP_REPLY",
		StateClientIOMoreData: "CLIENT_IO_MORE_DATA",
		StateAppIOMoreData:    "APP_IO_MORE_DATA",
		HTTPState(255):        "UNKNOWN",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("HTTPState(%d).String() = %q, want %q", state, got, want)
		}
	}
}
