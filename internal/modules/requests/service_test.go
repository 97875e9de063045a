package requests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"boadwuma-backend/internal/models"
	"boadwuma-backend/internal/platform/ws"
)

// ----------------------------------------------------------------------------
// fakeRepo: in-memory request store with the same version semantics as the
// real repository, so conflict behavior is exercised too.
// ----------------------------------------------------------------------------
type fakeRepo struct {
	requests map[string]*models.ServiceRequest
	seq      int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: make(map[string]*models.ServiceRequest)}
}

func (f *fakeRepo) Create(ctx context.Context, customerID string, req models.CreateRequestRequest) (*models.ServiceRequest, error) {
	f.seq++
	r := &models.ServiceRequest{
		ID:          fmt.Sprintf("req-%d", f.seq),
		CustomerID:  customerID,
		Service:     req.Service,
		Description: req.Description,
		Status:      models.StatusPending,
		Location:    req.Location,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Version:     1,
	}
	if req.ProviderID != "" {
		pid := req.ProviderID
		r.ProviderID = &pid
	}
	cp := *r
	f.requests[r.ID] = &cp
	return r, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, requestID string) (*models.ServiceRequest, error) {
	r, ok := f.requests[requestID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) ListByCustomerID(ctx context.Context, customerID string, page, limit int) ([]*models.ServiceRequest, int, error) {
	var out []*models.ServiceRequest
	for _, r := range f.requests {
		if r.CustomerID == customerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListByProviderID(ctx context.Context, providerID string, page, limit int) ([]*models.ServiceRequest, int, error) {
	var out []*models.ServiceRequest
	for _, r := range f.requests {
		if r.ProviderID != nil && *r.ProviderID == providerID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateTransition(ctx context.Context, r *models.ServiceRequest) error {
	stored, ok := f.requests[r.ID]
	if !ok {
		return models.ErrNotFound
	}
	if stored.Version != r.Version {
		return models.ErrConflict
	}
	r.Version++
	cp := *r
	f.requests[r.ID] = &cp
	return nil
}

func (f *fakeRepo) ListStalePending(ctx context.Context, olderThan time.Time) ([]*models.ServiceRequest, error) {
	var out []*models.ServiceRequest
	for _, r := range f.requests {
		if r.Status == models.StatusPending && r.CreatedAt.Before(olderThan) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Fakes for the side channels, recording calls for assertions.
// ----------------------------------------------------------------------------
type fakeGeo struct{}

func (fakeGeo) EstimateEta() int { return 15 }
func (fakeGeo) ProviderPosition(origin models.Location) models.Location {
	return models.Location{Lat: origin.Lat + 0.001, Lng: origin.Lng - 0.001}
}

type fakeTracking struct{ deactivated []string }

func (f *fakeTracking) Deactivate(ctx context.Context, requestID string) error {
	f.deactivated = append(f.deactivated, requestID)
	return nil
}

type fakeChat struct{ messages []string }

func (f *fakeChat) AppendStatusMessage(ctx context.Context, requestID, senderID, senderType, text string) error {
	f.messages = append(f.messages, text)
	return nil
}

type fakeProviderDirectory struct{ ratings map[string]int }

func (f *fakeProviderDirectory) RecordRating(ctx context.Context, providerUserID string, rating int) error {
	if f.ratings == nil {
		f.ratings = make(map[string]int)
	}
	f.ratings[providerUserID] = rating
	return nil
}

type fakeFeed struct{ events []ws.Event }

func (f *fakeFeed) Publish(ev ws.Event) {
	f.events = append(f.events, ev)
}

type fakePayments struct {
	charges []float64
	fail    bool
}

func (f *fakePayments) ProcessPayment(ctx context.Context, customerID string, amount float64, paymentMethodID string) (string, error) {
	if f.fail {
		return "", errors.New("card declined")
	}
	f.charges = append(f.charges, amount)
	return "pi_test", nil
}

type testEnv struct {
	repo      *fakeRepo
	tracking  *fakeTracking
	chat      *fakeChat
	feed      *fakeFeed
	providers *fakeProviderDirectory
	payments  *fakePayments
	svc       *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:      newFakeRepo(),
		tracking:  &fakeTracking{},
		chat:      &fakeChat{},
		feed:      &fakeFeed{},
		providers: &fakeProviderDirectory{},
		payments:  &fakePayments{},
	}
	env.svc = NewService(env.repo, fakeGeo{}, env.tracking, env.chat, nil, env.feed, nil, nil, env.providers, env.payments)
	return env
}

func (e *testEnv) createRequest(t *testing.T, customerID string) *models.ServiceRequest {
	t.Helper()
	r, err := e.svc.CreateRequest(context.Background(), customerID, models.CreateRequestRequest{
		Service:     "Plumbing",
		Description: "Leaking kitchen sink",
		Location:    models.Location{Lat: 5.6037, Lng: -0.1870, Name: "Accra"},
	})
	if err != nil {
		t.Fatalf("CreateRequest error: %v", err)
	}
	return r
}

// ----------------------------------------------------------------------------
// Tests
// ----------------------------------------------------------------------------

func TestCreateRequestStartsPending(t *testing.T) {
	env := newTestEnv()
	r := env.createRequest(t, "cust-1")

	if r.Status != models.StatusPending {
		t.Errorf("Status = %s; want pending", r.Status)
	}
	if r.ProviderID != nil || r.Eta != nil || r.ProviderLocation != nil || r.AcceptedAt != nil {
		t.Error("new request has later-status fields populated")
	}
}

func TestTransitionFullLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := env.createRequest(t, "cust-1")

	// provider accepts
	r, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusAccepted})
	if err != nil {
		t.Fatalf("accept error: %v", err)
	}
	if r.Status != models.StatusAccepted {
		t.Errorf("Status = %s; want accepted", r.Status)
	}
	if r.ProviderID == nil || *r.ProviderID != "prov-1" {
		t.Error("accepting provider not bound to the request")
	}
	if r.AcceptedAt == nil {
		t.Error("AcceptedAt not stamped")
	}
	if r.Eta != nil || r.ProviderLocation != nil {
		t.Error("eta populated outside en_route")
	}

	// provider heads out
	r, err = env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusEnRoute})
	if err != nil {
		t.Fatalf("en_route error: %v", err)
	}
	if r.EnRouteAt == nil {
		t.Error("EnRouteAt not stamped")
	}
	if r.Eta == nil || *r.Eta != 15 {
		t.Errorf("Eta = %v; want 15", r.Eta)
	}
	if r.ProviderLocation == nil {
		t.Fatal("ProviderLocation not populated while en_route")
	}
	if r.ProviderLocation.Lat != 5.6037+0.001 {
		t.Errorf("ProviderLocation.Lat = %f; want %f", r.ProviderLocation.Lat, 5.6037+0.001)
	}

	// provider finishes, recording the final price
	price := 120.0
	r, err = env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusCompleted, FinalPrice: &price})
	if err != nil {
		t.Fatalf("complete error: %v", err)
	}
	if r.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}
	if r.Eta != nil || r.ProviderLocation != nil {
		t.Error("eta/provider location not cleared on completion")
	}
	if r.FinalPrice == nil || *r.FinalPrice != 120.0 {
		t.Errorf("FinalPrice = %v; want 120", r.FinalPrice)
	}

	// completion deactivates tracking and every hop drops a status message
	if len(env.tracking.deactivated) != 1 || env.tracking.deactivated[0] != r.ID {
		t.Errorf("tracking.deactivated = %v; want [%s]", env.tracking.deactivated, r.ID)
	}
	if len(env.chat.messages) != 3 {
		t.Errorf("chat messages = %d; want 3", len(env.chat.messages))
	}

	// every hop is pushed to websocket subscribers
	if len(env.feed.events) != 3 {
		t.Fatalf("feed events = %d; want 3", len(env.feed.events))
	}
	for _, ev := range env.feed.events {
		if ev.Kind != "status_changed" {
			t.Errorf("event kind = %s; want status_changed", ev.Kind)
		}
		if ev.RequestID != r.ID {
			t.Errorf("event request id = %s; want %s", ev.RequestID, r.ID)
		}
	}
}

func TestTransitionRejectsSkippedStates(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	for _, to := range []string{models.StatusEnRoute, models.StatusCompleted} {
		r := env.createRequest(t, "cust-1")
		_, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: to})
		if !errors.Is(err, models.ErrForbidden) && !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("pending → %s: err = %v; want forbidden or invalid transition", to, err)
		}
		got, _ := env.repo.FindByID(ctx, r.ID)
		if got.Status != models.StatusPending {
			t.Errorf("pending → %s mutated the request to %s", to, got.Status)
		}
	}
}

func TestTransitionTerminalStatuses(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	r := env.createRequest(t, "cust-1")
	if _, err := env.svc.Transition(ctx, r.ID, "cust-1", models.RoleCustomer, models.UpdateStatusRequest{Status: models.StatusCancelled}); err != nil {
		t.Fatalf("cancel error: %v", err)
	}

	// nothing moves out of cancelled
	_, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusAccepted})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("cancelled → accepted: err = %v; want ErrInvalidTransition", err)
	}
}

func TestTransitionActorChecks(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// customers cannot accept
	r := env.createRequest(t, "cust-1")
	if _, err := env.svc.Transition(ctx, r.ID, "cust-1", models.RoleCustomer, models.UpdateStatusRequest{Status: models.StatusAccepted}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("customer accept: err = %v; want ErrForbidden", err)
	}

	// only the assigned provider drives the job forward
	if _, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusAccepted}); err != nil {
		t.Fatalf("accept error: %v", err)
	}
	if _, err := env.svc.Transition(ctx, r.ID, "prov-2", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusEnRoute}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("foreign provider en_route: err = %v; want ErrForbidden", err)
	}

	// only the owning customer cancels
	if _, err := env.svc.Transition(ctx, r.ID, "cust-2", models.RoleCustomer, models.UpdateStatusRequest{Status: models.StatusCancelled}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("foreign customer cancel: err = %v; want ErrForbidden", err)
	}
}

func TestPreferredProviderOnlyAccepts(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	r, err := env.svc.CreateRequest(ctx, "cust-1", models.CreateRequestRequest{
		Service:     "Electrical",
		Description: "Rewire socket",
		Location:    models.Location{Lat: 5.6, Lng: -0.18},
		ProviderID:  "prov-1",
	})
	if err != nil {
		t.Fatalf("CreateRequest error: %v", err)
	}

	if _, err := env.svc.Transition(ctx, r.ID, "prov-2", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusAccepted}); !errors.Is(err, models.ErrForbidden) {
		t.Errorf("non-preferred provider accept: err = %v; want ErrForbidden", err)
	}
	if _, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusAccepted}); err != nil {
		t.Errorf("preferred provider accept: err = %v", err)
	}
}

func TestCancelDeactivatesTracking(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := env.createRequest(t, "cust-1")

	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusAccepted)
	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusEnRoute)

	got, err := env.svc.Transition(ctx, r.ID, "cust-1", models.RoleCustomer, models.UpdateStatusRequest{Status: models.StatusCancelled})
	if err != nil {
		t.Fatalf("cancel error: %v", err)
	}
	if got.Eta != nil || got.ProviderLocation != nil {
		t.Error("eta/provider location not cleared on cancellation")
	}
	if len(env.tracking.deactivated) != 1 {
		t.Errorf("tracking.deactivated = %v; want one entry", env.tracking.deactivated)
	}
}

func TestTransitionConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := env.createRequest(t, "cust-1")

	// bump the stored version behind the service's back
	stored := env.repo.requests[r.ID]
	stored.Version++

	_, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusAccepted})
	if !errors.Is(err, models.ErrConflict) {
		t.Errorf("err = %v; want ErrConflict", err)
	}
}

func TestRateRequest(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := env.createRequest(t, "cust-1")

	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusAccepted)
	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusEnRoute)
	price := 80.0
	if _, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusCompleted, FinalPrice: &price}); err != nil {
		t.Fatalf("complete error: %v", err)
	}

	rated, err := env.svc.RateRequest(ctx, r.ID, "cust-1", models.RatingRequest{
		Rating:          5,
		Review:          "Fast and tidy work",
		PaymentMethod:   "cash",
		PaymentMethodID: "",
	})
	if err != nil {
		t.Fatalf("RateRequest error: %v", err)
	}
	if rated.Status != models.StatusRated {
		t.Errorf("Status = %s; want rated", rated.Status)
	}
	if rated.Rating == nil || *rated.Rating != 5 {
		t.Errorf("Rating = %v; want 5", rated.Rating)
	}
	if env.providers.ratings["prov-1"] != 5 {
		t.Errorf("provider aggregate = %d; want 5", env.providers.ratings["prov-1"])
	}
	// cash settles off-platform
	if len(env.payments.charges) != 0 {
		t.Errorf("charges = %v; want none for cash", env.payments.charges)
	}

	// a second rating is rejected
	_, err = env.svc.RateRequest(ctx, r.ID, "cust-1", models.RatingRequest{Rating: 1, PaymentMethod: "cash"})
	if !errors.Is(err, models.ErrAlreadyRated) {
		t.Errorf("second rating: err = %v; want ErrAlreadyRated", err)
	}
}

func TestRateRequestRequiresCompleted(t *testing.T) {
	env := newTestEnv()
	r := env.createRequest(t, "cust-1")

	_, err := env.svc.RateRequest(context.Background(), r.ID, "cust-1", models.RatingRequest{Rating: 4, PaymentMethod: "cash"})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("rating a pending request: err = %v; want ErrInvalidTransition", err)
	}
}

func TestRateRequestCardPayment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := env.createRequest(t, "cust-1")

	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusAccepted)
	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusEnRoute)
	price := 250.0
	if _, err := env.svc.Transition(ctx, r.ID, "prov-1", models.RoleProvider, models.UpdateStatusRequest{Status: models.StatusCompleted, FinalPrice: &price}); err != nil {
		t.Fatalf("complete error: %v", err)
	}

	// declined card leaves the request completed and ratable
	env.payments.fail = true
	if _, err := env.svc.RateRequest(ctx, r.ID, "cust-1", models.RatingRequest{Rating: 4, PaymentMethod: "card", PaymentMethodID: "pm_1"}); err == nil {
		t.Fatal("declined card payment did not fail the rating")
	}
	got, _ := env.repo.FindByID(ctx, r.ID)
	if got.Status != models.StatusCompleted {
		t.Errorf("Status after declined payment = %s; want completed", got.Status)
	}

	// successful charge uses the final price
	env.payments.fail = false
	if _, err := env.svc.RateRequest(ctx, r.ID, "cust-1", models.RatingRequest{Rating: 4, PaymentMethod: "card", PaymentMethodID: "pm_1"}); err != nil {
		t.Fatalf("RateRequest error: %v", err)
	}
	if len(env.payments.charges) != 1 || env.payments.charges[0] != 250.0 {
		t.Errorf("charges = %v; want [250]", env.payments.charges)
	}
}

func TestGetRequestHidesForeignRequests(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	r := env.createRequest(t, "cust-1")

	if _, err := env.svc.GetRequest(ctx, r.ID, "cust-1", models.RoleCustomer); err != nil {
		t.Errorf("owner GetRequest error: %v", err)
	}
	if _, err := env.svc.GetRequest(ctx, r.ID, "cust-2", models.RoleCustomer); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign GetRequest: err = %v; want ErrNotFound", err)
	}

	// the status read has the same visibility rule
	if _, err := env.svc.GetRequestStatus(ctx, r.ID, "cust-2"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("foreign GetRequestStatus: err = %v; want ErrNotFound", err)
	}
	status, err := env.svc.GetRequestStatus(ctx, r.ID, "cust-1")
	if err != nil {
		t.Fatalf("owner GetRequestStatus error: %v", err)
	}
	if status != models.StatusPending {
		t.Errorf("status = %s; want pending", status)
	}

	// the assigned provider sees it too
	mustTransition(t, env.svc, r.ID, "prov-1", models.RoleProvider, models.StatusAccepted)
	if _, err := env.svc.GetRequestStatus(ctx, r.ID, "prov-1"); err != nil {
		t.Errorf("assigned provider GetRequestStatus error: %v", err)
	}
}

func TestReaperCancelsStalePending(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	stale := env.createRequest(t, "cust-1")
	env.repo.requests[stale.ID].CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := env.createRequest(t, "cust-1")

	reaper := NewReaper(env.repo, env.svc, 24*time.Hour)
	reaper.sweep(ctx)

	got, _ := env.repo.FindByID(ctx, stale.ID)
	if got.Status != models.StatusCancelled {
		t.Errorf("stale request status = %s; want cancelled", got.Status)
	}
	got, _ = env.repo.FindByID(ctx, fresh.ID)
	if got.Status != models.StatusPending {
		t.Errorf("fresh request status = %s; want pending", got.Status)
	}
}

func mustTransition(t *testing.T, svc *Service, requestID, actorID, role, to string) {
	t.Helper()
	if _, err := svc.Transition(context.Background(), requestID, actorID, role, models.UpdateStatusRequest{Status: to}); err != nil {
		t.Fatalf("transition to %s error: %v", to, err)
	}
}
