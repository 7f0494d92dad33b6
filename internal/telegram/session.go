package telegram

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// FlowKind identifies which guided-input wizard a user is running.
type FlowKind string

const (
	FlowNewCategory FlowKind = "new_category"
	FlowNewProduct  FlowKind = "new_product"
)

// WizardStep identifies the single field a wizard is currently awaiting.
type WizardStep string

const (
	// new-category flow
	StepCategoryName        WizardStep = "category_name"
	StepCategoryDescription WizardStep = "category_description"
	StepCategoryIcon        WizardStep = "category_icon"

	// new-product flow (category is picked via inline keyboard, with an
	// optional nested name-only sub-flow)
	StepProductName            WizardStep = "product_name"
	StepProductDescription     WizardStep = "product_description"
	StepProductPrice           WizardStep = "product_price"
	StepProductStock           WizardStep = "product_stock"
	StepProductCategory        WizardStep = "product_category"
	StepProductNewCategoryName WizardStep = "product_new_category_name"
	StepProductImages          WizardStep = "product_images"
)

// wizardTTL is the inactivity timeout after which an abandoned wizard
// session is dropped.
const wizardTTL = 30 * time.Minute

// WizardSession holds the state of one in-progress creation flow for
// one user. At most one session exists per user; starting a new flow
// replaces the previous session.
type WizardSession struct {
	Flow      FlowKind
	ShopID    uuid.UUID
	Step      WizardStep
	Fields    map[string]string // accumulated validated field values
	Images    []string          // accumulated image file IDs (product flow)
	ExpiresAt time.Time
}

// View is the menu level a user currently sees.
type View string

const (
	ViewShopMenu View = "shop_menu"
	ViewCategory View = "category"
	ViewProduct  View = "product"
)

// NavigationContext records where in the shop menus a user is.
// Overwritten wholesale on every navigation action.
type NavigationContext struct {
	ShopID     uuid.UUID
	View       View
	CategoryID uuid.UUID
	ProductID  uuid.UUID
}

// sessionStore keeps wizard sessions and navigation contexts keyed by
// user ID. Actions from different users run in parallel, so access is
// mutex-guarded; a single user's actions are handled sequentially.
type sessionStore struct {
	mu      sync.RWMutex
	wizards map[int64]*WizardSession
	nav     map[int64]NavigationContext
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		wizards: make(map[int64]*WizardSession),
		nav:     make(map[int64]NavigationContext),
	}
}

// startWizard creates the session for a user at the given first step,
// replacing any previous session.
func (s *sessionStore) startWizard(userID int64, flow FlowKind, shopID uuid.UUID, step WizardStep) *WizardSession {
	sess := &WizardSession{
		Flow:      flow,
		ShopID:    shopID,
		Step:      step,
		Fields:    make(map[string]string),
		ExpiresAt: time.Now().Add(wizardTTL),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[userID] = sess
	return sess
}

// wizard returns the active session for a user, if any. An expired
// session is evicted on read.
func (s *sessionStore) wizard(userID int64) (*WizardSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.wizards[userID]
	if !ok {
		return nil, false
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.wizards, userID)
		return nil, false
	}
	return sess, true
}

// saveWizard stores the (mutated) session and refreshes its TTL.
func (s *sessionStore) saveWizard(userID int64, sess *WizardSession) {
	sess.ExpiresAt = time.Now().Add(wizardTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[userID] = sess
}

// endWizard removes the session unconditionally.
func (s *sessionStore) endWizard(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wizards, userID)
}

// setNav overwrites the user's navigation context (last write wins).
func (s *sessionStore) setNav(userID int64, nav NavigationContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav[userID] = nav
}

// navFor returns the user's navigation context, or an empty context.
func (s *sessionStore) navFor(userID int64) NavigationContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav[userID]
}
