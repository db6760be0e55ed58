package notify

import (
	"testing"
	"time"
)

func seed() *Ledger {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	l := &Ledger{}
	l.Append(New("An", "an", "coLan", "Toán học", "Phân số", 4, 5, base))
	l.Append(New("Binh", "binh", "thayHung", "Vật lý", "Lực", 2, 5, base.Add(time.Minute)))
	l.Append(New("Chi", "chi", "coLan", "Toán học", "Hình học", 5, 5, base.Add(2*time.Minute)))
	return l
}

func TestAppend_NewestFirst(t *testing.T) {
	l := seed()
	items := l.Items()
	if len(items) != 3 || items[0].StudentID != "chi" {
		t.Fatalf("expected newest first, got %+v", items)
	}
	if items[0].ID == items[1].ID {
		t.Fatalf("ids must be unique")
	}
}

func TestVisibleAndUnread(t *testing.T) {
	l := seed()
	lan := Viewer{Identity: "coLan"}
	vis := l.Visible(lan)
	if len(vis) != 2 || vis[0].StudentID != "chi" || vis[1].StudentID != "an" {
		t.Fatalf("unexpected visible list %+v", vis)
	}
	if l.Unread(lan) != 2 || l.Unread(Viewer{Identity: "admin", Admin: true}) != 3 {
		t.Fatalf("unexpected unread counts")
	}

	if !l.MarkRead(vis[0].ID) {
		t.Fatalf("mark read should find the id")
	}
	if l.Unread(lan) != 1 {
		t.Fatalf("expected 1 unread after mark, got %d", l.Unread(lan))
	}
	if l.MarkRead("missing") {
		t.Fatalf("absent id must be a no-op")
	}
}

func TestClear_TeacherScope(t *testing.T) {
	l := seed()
	removed := l.Clear(Viewer{Identity: "coLan"})
	if removed != 2 || l.Len() != 1 {
		t.Fatalf("removed=%d len=%d", removed, l.Len())
	}
	if l.Items()[0].TeacherID != "thayHung" {
		t.Fatalf("other teacher's entries must stay: %+v", l.Items())
	}
}

func TestClear_AdminScope(t *testing.T) {
	l := seed()
	if n := l.Clear(Viewer{Identity: "admin", Admin: true}); n != 3 || l.Len() != 0 {
		t.Fatalf("admin clear should empty ledger, removed=%d len=%d", n, l.Len())
	}
}

func TestRoutingKey(t *testing.T) {
	if k := RoutingKey(Notification{TeacherID: "coLan"}); k != "result.coLan" {
		t.Fatalf("unexpected routing key %q", k)
	}
}
