package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/kv"
	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/state"
)

type genFunc func(ctx context.Context, s quiz.Settings) ([]quiz.Question, error)

func (f genFunc) Generate(ctx context.Context, s quiz.Settings) ([]quiz.Question, error) {
	return f(ctx, s)
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, n notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var (
	student = auth.User{Username: "hs01", Role: auth.RoleStudent, FullName: "Nguyễn An", TeacherID: "gv01"}
	teacher = auth.User{Username: "gv01", Role: auth.RoleTeacher, FullName: "Trần Bình"}
	admin   = auth.User{Username: "admin", Role: auth.RoleTeacher, FullName: auth.AdminFullName, Admin: true}
)

func twoQuestions() []quiz.Question {
	return []quiz.Question{
		{ID: "q1", Text: "1+1?", Options: []string{"1", "2", "3", "4"}, CorrectIndex: 1},
		{ID: "q2", Text: "2-2?", Options: []string{"0", "1", "2", "3"}, CorrectIndex: 0},
	}
}

func newMachine(t *testing.T, gen genFunc) (*Machine, *state.Repository, *recordingPublisher) {
	t.Helper()
	repo := state.Open(context.Background(), kv.NewMemory(), state.DefaultBranding())
	pub := &recordingPublisher{}
	m := NewMachine(Deps{
		Store:     repo,
		Generator: gen,
		Publisher: pub,
		Now:       func() time.Time { return time.UnixMilli(1700000000000) },
	})
	return m, repo, pub
}

func staticGen(qs []quiz.Question) genFunc {
	return func(context.Context, quiz.Settings) ([]quiz.Question, error) { return qs, nil }
}

func TestLoginLogout(t *testing.T) {
	m, _, _ := newMachine(t, nil)
	if m.Screen() != ScreenLoggedOut {
		t.Fatalf("initial screen %s", m.Screen())
	}
	if err := m.Login(student); err != nil {
		t.Fatal(err)
	}
	if m.Screen() != ScreenHome {
		t.Fatalf("expected HOME after login, got %s", m.Screen())
	}
	if err := m.Login(student); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second login: %v", err)
	}
	m.Logout()
	if _, ok := m.User(); ok || m.Screen() != ScreenLoggedOut {
		t.Fatalf("logout did not clear user")
	}
}

func TestAIQuizToResult(t *testing.T) {
	m, _, _ := newMachine(t, staticGen(twoQuestions()))
	_ = m.Login(student)
	if err := m.StartQuiz(context.Background()); err != nil {
		t.Fatal(err)
	}
	if m.Screen() != ScreenInQuiz {
		t.Fatalf("expected IN_QUIZ, got %s", m.Screen())
	}

	if err := m.Next(); !errors.Is(err, session.ErrUnanswered) {
		t.Fatalf("advance without answer: %v", err)
	}
	if snap := m.Snapshot(); snap.Session.Position != 0 {
		t.Fatalf("position moved on rejected advance")
	}
	_ = m.SelectOption("q1", 1)
	if err := m.Next(); err != nil {
		t.Fatal(err)
	}
	_ = m.SelectOption("q2", 1)
	if err := m.Next(); err != nil {
		t.Fatal(err)
	}

	snap := m.Snapshot()
	if snap.Screen != ScreenResult || snap.Result == nil {
		t.Fatalf("expected result screen, got %+v", snap)
	}
	if snap.Result.Score != 1 || snap.Result.Total != 2 || snap.Result.Percentage != 50 {
		t.Fatalf("unexpected result %+v", snap.Result)
	}
	if snap.Result.Items[1].Correct {
		t.Fatalf("second answer should be wrong")
	}

	if err := m.Restart(); err != nil {
		t.Fatal(err)
	}
	if snap := m.Snapshot(); snap.Screen != ScreenHome || snap.Result != nil || snap.Error != "" {
		t.Fatalf("restart did not clear quiz state: %+v", snap)
	}
}

func TestGenerationFailureReturnsHome(t *testing.T) {
	m, _, _ := newMachine(t, func(context.Context, quiz.Settings) ([]quiz.Question, error) {
		return nil, errors.New("network down")
	})
	_ = m.Login(student)
	if err := m.StartQuiz(context.Background()); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if m.Screen() != ScreenHome {
		t.Fatalf("expected HOME, got %s", m.Screen())
	}
	if m.Error() == "" {
		t.Fatal("expected a user-facing error message")
	}
}

func TestEmptyGenerationIsFailure(t *testing.T) {
	m, _, _ := newMachine(t, staticGen(nil))
	_ = m.Login(student)
	if err := m.StartQuiz(context.Background()); err == nil {
		t.Fatal("zero questions must not start a session")
	}
	if m.Screen() != ScreenHome || m.Error() != MsgGenerationFailed {
		t.Fatalf("screen=%s err=%q", m.Screen(), m.Error())
	}
}

func TestLateGenerationIgnored(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	m, _, _ := newMachine(t, func(context.Context, quiz.Settings) ([]quiz.Question, error) {
		close(started)
		<-release
		return twoQuestions(), nil
	})
	_ = m.Login(student)

	done := make(chan error, 1)
	go func() { done <- m.StartQuiz(context.Background()) }()
	<-started
	if m.Screen() != ScreenGenerating {
		t.Fatalf("expected GENERATING, got %s", m.Screen())
	}
	if err := m.Cancel(); err != nil {
		t.Fatal(err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrStaleGeneration) {
		t.Fatalf("expected stale generation, got %v", err)
	}
	if snap := m.Snapshot(); snap.Screen != ScreenHome || snap.Session != nil {
		t.Fatalf("late result leaked into state: %+v", snap)
	}
}

func TestFinishGenerationWrongTicket(t *testing.T) {
	m, _, _ := newMachine(t, nil)
	_ = m.Login(student)
	first, err := m.BeginQuiz()
	if err != nil {
		t.Fatal(err)
	}
	m.Logout()
	_ = m.Login(student)
	second, _ := m.BeginQuiz()

	if err := m.FinishGeneration(first, twoQuestions(), nil); !errors.Is(err, ErrStaleGeneration) {
		t.Fatalf("old ticket accepted: %v", err)
	}
	if err := m.FinishGeneration(second, twoQuestions(), nil); err != nil {
		t.Fatal(err)
	}
	if m.Screen() != ScreenInQuiz {
		t.Fatalf("expected IN_QUIZ, got %s", m.Screen())
	}
}

func TestLibraryQuiz(t *testing.T) {
	m, repo, _ := newMachine(t, nil)
	ctx := context.Background()
	_ = repo.UpdateLibrary(ctx, func([]quiz.Question) ([]quiz.Question, error) {
		return []quiz.Question{
			{ID: "a", Text: "A", Options: []string{"x", "y"}, CorrectIndex: 0, Subject: quiz.SubjectMath, Grade: 7, Topic: "Phân số"},
			{ID: "b", Text: "B", Options: []string{"x", "y"}, CorrectIndex: 1, Subject: quiz.SubjectMath, Grade: 7, Topic: "Số nguyên"},
			{ID: "c", Text: "C", Options: []string{"x", "y"}, CorrectIndex: 1, Subject: quiz.SubjectHistory, Grade: 7},
		}, nil
	})
	_ = m.Login(student)

	s := quiz.DefaultSettings()
	s.Source = quiz.SourceLibrary
	s.Grade = 7
	s.Topic = "PHÂN"
	if err := m.UpdateSettings(s); err != nil {
		t.Fatal(err)
	}
	if err := m.StartQuiz(ctx); err != nil {
		t.Fatal(err)
	}
	snap := m.Snapshot()
	if snap.Screen != ScreenInQuiz || snap.Session.Total != 1 || snap.Session.Question.ID != "a" {
		t.Fatalf("unexpected session %+v", snap.Session)
	}

	_ = m.Cancel()
	s.Grade = 9
	_ = m.UpdateSettings(s)
	if err := m.StartQuiz(ctx); !errors.Is(err, quiz.ErrNoMatchingQuestions) {
		t.Fatalf("expected no matching questions, got %v", err)
	}
	if m.Screen() != ScreenHome || m.Error() != MsgNoMatchingQuestions {
		t.Fatalf("screen=%s err=%q", m.Screen(), m.Error())
	}
}

func TestLibraryQuizUnusableEntriesSurfaceMessage(t *testing.T) {
	m, repo, _ := newMachine(t, nil)
	ctx := context.Background()
	_ = repo.UpdateLibrary(ctx, func([]quiz.Question) ([]quiz.Question, error) {
		q := quiz.Question{ID: "1", Text: "A", Options: []string{"x", "y"}, CorrectIndex: 0, Subject: quiz.SubjectMath, Grade: 7}
		return []quiz.Question{q, q}, nil
	})
	_ = m.Login(student)
	s := quiz.DefaultSettings()
	s.Source = quiz.SourceLibrary
	s.Grade = 7
	_ = m.UpdateSettings(s)

	if err := m.StartQuiz(ctx); !errors.Is(err, quiz.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	if m.Screen() != ScreenHome || m.Error() != MsgLibraryUnusable {
		t.Fatalf("screen=%s err=%q", m.Screen(), m.Error())
	}
}

func TestUpdateSettingsValidates(t *testing.T) {
	m, _, _ := newMachine(t, nil)
	_ = m.Login(student)
	bad := quiz.DefaultSettings()
	bad.Difficulty = 7
	if err := m.UpdateSettings(bad); !errors.Is(err, quiz.ErrInvalidSettings) {
		t.Fatalf("expected invalid settings, got %v", err)
	}
	if m.Settings() != quiz.DefaultSettings() {
		t.Fatalf("settings changed on rejected update")
	}
}

func finishQuiz(t *testing.T, m *Machine) {
	t.Helper()
	if err := m.StartQuiz(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, q := range twoQuestions() {
		if err := m.SelectOption(q.ID, q.CorrectIndex); err != nil {
			t.Fatal(err)
		}
		if err := m.Next(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestResultSnapshotFields(t *testing.T) {
	m, _, _ := newMachine(t, staticGen(twoQuestions()))
	_ = m.Login(student)
	finishQuiz(t, m)

	buf, err := json.Marshal(m.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	_ = json.Unmarshal(buf, &raw)
	if _, ok := raw["result"]; !ok {
		t.Fatalf("result missing: %s", buf)
	}
	if _, ok := raw["band"]; ok {
		t.Fatalf("snapshot carries a score band: %s", buf)
	}
}

func TestSendToTeacher(t *testing.T) {
	m, repo, pub := newMachine(t, staticGen(twoQuestions()))
	_ = m.Login(student)
	finishQuiz(t, m)

	n, err := m.SendToTeacher(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n.TeacherID != "gv01" || n.StudentID != "hs01" || n.Score != 2 || n.Topic != quiz.GeneralTopic || n.Timestamp != 1700000000000 {
		t.Fatalf("unexpected notification %+v", n)
	}
	if m.Screen() != ScreenResult {
		t.Fatalf("send should stay on RESULT")
	}
	if repo.Ledger().Len() != 1 || len(pub.sent) != 1 {
		t.Fatalf("ledger=%d published=%d", repo.Ledger().Len(), len(pub.sent))
	}
	if _, err := m.SendToTeacher(context.Background()); !errors.Is(err, ErrAlreadySent) {
		t.Fatalf("duplicate send: %v", err)
	}
}

func TestSendToTeacherPublishFailureKeepsLedger(t *testing.T) {
	m, repo, pub := newMachine(t, staticGen(twoQuestions()))
	pub.err = errors.New("broker unavailable")
	_ = m.Login(student)
	finishQuiz(t, m)
	if _, err := m.SendToTeacher(context.Background()); err != nil {
		t.Fatal(err)
	}
	if repo.Ledger().Len() != 1 {
		t.Fatal("ledger write must not depend on publishing")
	}
}

func TestSendWithoutTeacher(t *testing.T) {
	m, _, _ := newMachine(t, staticGen(twoQuestions()))
	orphan := student
	orphan.TeacherID = ""
	_ = m.Login(orphan)
	finishQuiz(t, m)
	if _, err := m.SendToTeacher(context.Background()); !errors.Is(err, ErrNoTeacher) {
		t.Fatalf("expected ErrNoTeacher, got %v", err)
	}
}

func TestCancelRecordsNothing(t *testing.T) {
	m, repo, pub := newMachine(t, staticGen(twoQuestions()))
	_ = m.Login(student)
	_ = m.StartQuiz(context.Background())
	_ = m.SelectOption("q1", 1)
	if err := m.Cancel(); err != nil {
		t.Fatal(err)
	}
	if snap := m.Snapshot(); snap.Screen != ScreenHome || snap.Result != nil {
		t.Fatalf("cancel left state behind: %+v", snap)
	}
	if repo.Ledger().Len() != 0 || len(pub.sent) != 0 {
		t.Fatal("cancel must not notify")
	}
}

func TestRoleGating(t *testing.T) {
	cases := []struct {
		user    auth.User
		target  Screen
		wantErr error
	}{
		{student, ScreenTeacherLibrary, ErrForbidden},
		{student, ScreenNotifications, ErrForbidden},
		{student, ScreenAdminSettings, ErrForbidden},
		{student, ScreenConfiguring, nil},
		{teacher, ScreenTeacherLibrary, nil},
		{teacher, ScreenNotifications, nil},
		{teacher, ScreenAdminSettings, ErrForbidden},
		{admin, ScreenAdminSettings, nil},
		{admin, ScreenResult, ErrInvalidTransition},
	}
	for _, tc := range cases {
		m, _, _ := newMachine(t, nil)
		_ = m.Login(tc.user)
		err := m.Open(tc.target)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s -> %s: got %v want %v", tc.user.Username, tc.target, err, tc.wantErr)
			continue
		}
		want := tc.target
		if tc.wantErr != nil {
			want = ScreenHome
		}
		if m.Screen() != want {
			t.Errorf("%s -> %s: screen %s", tc.user.Username, tc.target, m.Screen())
		}
		if tc.wantErr == nil {
			if err := m.Back(); err != nil || m.Screen() != ScreenHome {
				t.Errorf("back from %s: %v", tc.target, err)
			}
		}
	}
}

func TestTeacherLibraryAndNotifications(t *testing.T) {
	ctx := context.Background()
	m, repo, _ := newMachine(t, nil)
	_ = repo.UpdateLedger(ctx, func(l *notify.Ledger) error {
		l.Append(notify.Notification{ID: "n1", TeacherID: "gv01", Timestamp: 1})
		l.Append(notify.Notification{ID: "n2", TeacherID: "gv02", Timestamp: 2})
		return nil
	})
	_ = m.Login(teacher)

	q, err := m.AddQuestion(ctx, quiz.Draft{Text: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2, Subject: quiz.SubjectMath, Grade: 6})
	if err != nil {
		t.Fatal(err)
	}
	lib, _ := m.Library()
	if len(lib) != 1 || lib[0].ID != q.ID || !lib[0].IsCustom {
		t.Fatalf("library %+v", lib)
	}
	if found, _ := m.DeleteQuestion(ctx, q.ID); !found {
		t.Fatal("delete should find question")
	}

	if m.Unread() != 1 {
		t.Fatalf("teacher unread = %d", m.Unread())
	}
	if found, _ := m.MarkRead(ctx, "n2"); found {
		t.Fatal("teacher must not mark another teacher's entry")
	}
	if found, _ := m.MarkRead(ctx, "n1"); !found || m.Unread() != 0 {
		t.Fatal("mark read failed")
	}
	if n, _ := m.ClearNotifications(ctx); n != 1 || repo.Ledger().Len() != 1 {
		t.Fatalf("teacher clear removed %d, left %d", n, repo.Ledger().Len())
	}

	m.Logout()
	_ = m.Login(admin)
	if n, _ := m.ClearNotifications(ctx); n != 1 || repo.Ledger().Len() != 0 {
		t.Fatalf("admin clear removed %d", n)
	}
}

func TestStudentCannotManage(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newMachine(t, nil)
	_ = m.Login(student)
	if _, err := m.Library(); !errors.Is(err, ErrForbidden) {
		t.Fatalf("library: %v", err)
	}
	if _, err := m.Notifications(); !errors.Is(err, ErrForbidden) {
		t.Fatalf("notifications: %v", err)
	}
	if err := m.SaveBranding(ctx, state.Branding{AppName: "x"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("branding: %v", err)
	}
	if m.Unread() != 0 {
		t.Fatal("students have no unread count")
	}
}

func TestAdminSaveBrandingReturnsHome(t *testing.T) {
	m, repo, _ := newMachine(t, nil)
	_ = m.Login(admin)
	if err := m.Open(ScreenAdminSettings); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveBranding(context.Background(), state.Branding{AppName: "THCS Mới", AppSubtitle: "Ôn tập"}); err != nil {
		t.Fatal(err)
	}
	if m.Screen() != ScreenHome || repo.Branding().AppName != "THCS Mới" {
		t.Fatalf("screen=%s branding=%+v", m.Screen(), repo.Branding())
	}
}
