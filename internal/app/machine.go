// Package app is the screen controller. A Machine holds one user's position
// in the application and exposes every transition as a method; transitions
// that are not legal from the current screen return ErrInvalidTransition and
// leave the machine unchanged.
package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/auth"
	"github.com/mind-engage/mindengage-quiz/internal/genai"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/notify"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/rbac"
	"github.com/mind-engage/mindengage-quiz/internal/session"
	"github.com/mind-engage/mindengage-quiz/internal/state"
)

type Screen string

const (
	ScreenLoggedOut      Screen = "LOGGED_OUT"
	ScreenHome           Screen = "HOME"
	ScreenConfiguring    Screen = "CONFIGURING"
	ScreenGenerating     Screen = "GENERATING"
	ScreenInQuiz         Screen = "IN_QUIZ"
	ScreenResult         Screen = "RESULT"
	ScreenTeacherLibrary Screen = "TEACHER_LIBRARY"
	ScreenAdminSettings  Screen = "ADMIN_SETTINGS"
	ScreenNotifications  Screen = "NOTIFICATIONS"
)

var (
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrForbidden         = errors.New("forbidden for this role")
	ErrInvalidTransition = errors.New("transition not allowed from current screen")
	ErrStaleGeneration   = errors.New("generation result no longer expected")
	ErrGenerationFailed  = errors.New("could not generate questions")
	ErrNoTeacher         = errors.New("no teacher linked to this account")
	ErrAlreadySent       = errors.New("result already sent")
)

// User-facing messages kept on the machine after a failed start.
const (
	MsgNoMatchingQuestions = "Không tìm thấy câu hỏi phù hợp trong thư viện. Vui lòng chọn chủ đề khác hoặc thêm câu hỏi mới."
	MsgGenerationFailed    = "Không thể tạo đề bài. Vui lòng thử lại hoặc chọn số lượng câu ít hơn!"
	MsgLibraryUnusable     = "Câu hỏi trong thư viện bị lỗi, không thể bắt đầu bài làm. Vui lòng báo giáo viên."
)

// Store is the shared persisted state. *state.Repository implements it.
type Store interface {
	Library() []quiz.Question
	UpdateLibrary(ctx context.Context, fn func([]quiz.Question) ([]quiz.Question, error)) error
	Branding() state.Branding
	SaveBranding(ctx context.Context, b state.Branding) error
	Ledger() *notify.Ledger
	UpdateLedger(ctx context.Context, fn func(*notify.Ledger) error) error
}

type Deps struct {
	Store             Store
	Generator         genai.Generator
	Publisher         notify.Publisher // optional
	Rand              quiz.Shuffler    // optional; math/rand global source
	Now               func() time.Time // optional
	GenerationTimeout time.Duration    // zero means the caller's context decides
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// Machine is safe for concurrent use; each method runs to completion under
// the machine's lock. The one exception is the generation call itself,
// which runs unlocked and reports back through FinishGeneration.
type Machine struct {
	deps Deps

	mu       sync.Mutex
	screen   Screen
	user     *auth.User
	settings quiz.Settings
	sess     *session.Session
	result   *grading.Result
	sent     bool
	errMsg   string
	ticket   string // pending generation; empty when none
}

func NewMachine(deps Deps) *Machine {
	if deps.Publisher == nil {
		deps.Publisher = notify.NopPublisher()
	}
	if deps.Rand == nil {
		deps.Rand = globalShuffler{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Machine{deps: deps, screen: ScreenLoggedOut, settings: quiz.DefaultSettings()}
}

func (m *Machine) Screen() Screen {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.screen
}

func (m *Machine) User() (auth.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return auth.User{}, false
	}
	return *m.user, true
}

func (m *Machine) Settings() quiz.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// Error is the message left by the last failed quiz start, if any.
func (m *Machine) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}

func (m *Machine) in(screens ...Screen) error {
	for _, s := range screens {
		if m.screen == s {
			return nil
		}
	}
	return ErrInvalidTransition
}

// can checks perm for the logged-in user. Callers hold m.mu.
func (m *Machine) can(perm string) error {
	if m.user == nil {
		return ErrNotLoggedIn
	}
	if !rbac.Default.Has(m.user.PermissionRole(), perm) {
		return ErrForbidden
	}
	return nil
}

func (m *Machine) viewer() notify.Viewer {
	return notify.Viewer{Identity: m.user.Username, Admin: m.user.Admin}
}

func (m *Machine) resetQuiz() {
	m.sess = nil
	m.result = nil
	m.sent = false
	m.errMsg = ""
	m.ticket = ""
}

func (m *Machine) Login(u auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.in(ScreenLoggedOut); err != nil {
		return err
	}
	m.user = &u
	m.resetQuiz()
	m.screen = ScreenHome
	return nil
}

// Logout is legal from every screen. A pending generation is abandoned.
func (m *Machine) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	m.resetQuiz()
	m.screen = ScreenLoggedOut
}

// Open navigates from Home to one of the side screens.
func (m *Machine) Open(target Screen) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return ErrNotLoggedIn
	}
	if err := m.in(ScreenHome, ScreenConfiguring); err != nil {
		return err
	}
	var perm string
	switch target {
	case ScreenHome:
	case ScreenConfiguring:
		perm = rbac.PermQuizTake
	case ScreenTeacherLibrary:
		perm = rbac.PermLibraryManage
	case ScreenNotifications:
		perm = rbac.PermNotificationsView
	case ScreenAdminSettings:
		perm = rbac.PermSettingsManage
	default:
		return ErrInvalidTransition
	}
	if perm != "" {
		if err := m.can(perm); err != nil {
			return err
		}
	}
	m.screen = target
	return nil
}

// Back returns from a side screen to Home.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.in(ScreenConfiguring, ScreenTeacherLibrary, ScreenNotifications, ScreenAdminSettings); err != nil {
		return err
	}
	m.screen = ScreenHome
	return nil
}
