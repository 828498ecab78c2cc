package presence

import (
	"reflect"
	"testing"
)

type fakeConn struct{ name string }

func TestRegisterLastWriteWins(t *testing.T) {
	reg := NewRegistry()
	c1 := &fakeConn{name: "first"}
	c2 := &fakeConn{name: "second"}

	reg.Register("user-1", c1)
	reg.Register("user-1", c2)

	conn, ok := reg.Resolve("user-1")
	if !ok {
		t.Fatal("expected user-1 to resolve")
	}
	if conn != Conn(c2) {
		t.Errorf("expected most recent connection to win, got %v", conn)
	}

	// The displaced connection no longer matches anything
	if userID, removed := reg.UnregisterConn(c1); removed {
		t.Errorf("expected no match for displaced connection, removed %q", userID)
	}

	// user-1 must still be online through c2
	if _, ok := reg.Resolve("user-1"); !ok {
		t.Error("expected user-1 to remain registered after stale unregister")
	}
}

func TestRegisterResetsActivity(t *testing.T) {
	reg := NewRegistry()
	c1 := &fakeConn{}

	reg.Register("user-1", c1)
	if !reg.UpdateActivity("user-1", "Listening to Cosmic Drift") {
		t.Fatal("expected activity update for registered user")
	}

	reg.Register("user-1", &fakeConn{})

	activities := reg.Activities()
	if activities["user-1"] != DefaultActivity {
		t.Errorf("expected re-registration to reset activity to %q, got %q", DefaultActivity, activities["user-1"])
	}
}

func TestUpdateActivityUnknownUser(t *testing.T) {
	reg := NewRegistry()

	if reg.UpdateActivity("ghost", "Listening") {
		t.Error("expected update for unknown user to report false")
	}
	if len(reg.Activities()) != 0 {
		t.Error("expected no activity entry for unknown user")
	}
}

func TestUnregisterConn(t *testing.T) {
	reg := NewRegistry()
	c1 := &fakeConn{}

	reg.Register("user-1", c1)

	userID, removed := reg.UnregisterConn(c1)
	if !removed || userID != "user-1" {
		t.Fatalf("expected to remove user-1, got (%q, %v)", userID, removed)
	}

	if _, ok := reg.Resolve("user-1"); ok {
		t.Error("expected user-1 to be gone after unregister")
	}
	if len(reg.Activities()) != 0 {
		t.Error("expected activity entry to be removed with the connection")
	}

	// Second call for the same connection is a no-op
	if userID, removed := reg.UnregisterConn(c1); removed {
		t.Errorf("expected second unregister to be a no-op, removed %q", userID)
	}
}

func TestSnapshots(t *testing.T) {
	reg := NewRegistry()
	reg.Register("bob", &fakeConn{})
	reg.Register("alice", &fakeConn{})
	reg.UpdateActivity("alice", "Listening to Night Tide")

	ids := reg.OnlineIDs()
	if !reflect.DeepEqual(ids, []string{"alice", "bob"}) {
		t.Errorf("expected sorted online ids, got %v", ids)
	}

	want := map[string]string{
		"alice": "Listening to Night Tide",
		"bob":   DefaultActivity,
	}
	if got := reg.Activities(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected activities %v, got %v", want, got)
	}

	// Snapshot is a copy, not a view
	got := reg.Activities()
	got["alice"] = "mutated"
	if reg.Activities()["alice"] != "Listening to Night Tide" {
		t.Error("expected snapshot mutation to leave the registry untouched")
	}
}
