package impl

import (
	"context"
	"testing"
	"time"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/service"
	"vaanikaam/internal/store"

	"golang.org/x/crypto/bcrypt"
)

type otpKey struct {
	phone   string
	purpose domain.OtpPurpose
}

// memOtpStore is an in-memory stand-in for the gorm-backed challenge store.
type memOtpStore struct {
	rows map[otpKey]*domain.OtpChallenge

	// afterGet, when set, runs after every Get. Lets tests interleave a
	// concurrent consume between the verify and the delete.
	afterGet func()
}

func newMemOtpStore() *memOtpStore {
	return &memOtpStore{rows: map[otpKey]*domain.OtpChallenge{}}
}

func (m *memOtpStore) WithTx(_ context.Context, fn func(tx otpChallengeStore) error) error {
	return fn(m)
}

func (m *memOtpStore) Challenges() otpChallengeStore { return m }

func (m *memOtpStore) Upsert(_ context.Context, c *domain.OtpChallenge) error {
	cp := *c
	m.rows[otpKey{c.Phone, c.Purpose}] = &cp
	return nil
}

func (m *memOtpStore) Get(_ context.Context, phone string, purpose domain.OtpPurpose) (*domain.OtpChallenge, error) {
	defer func() {
		if m.afterGet != nil {
			m.afterGet()
		}
	}()
	c, ok := m.rows[otpKey{phone, purpose}]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memOtpStore) DeleteAll(_ context.Context, phone string, purpose domain.OtpPurpose) (int64, error) {
	k := otpKey{phone, purpose}
	if _, ok := m.rows[k]; !ok {
		return 0, nil
	}
	delete(m.rows, k)
	return 1, nil
}

func newTestOtpService(st *memOtpStore) *OtpServiceImpl {
	return &OtpServiceImpl{
		Store:  st,
		Hasher: NewBcryptHasher(bcrypt.MinCost),
		TTL:    10 * time.Minute,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func TestOtpIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	st := newMemOtpStore()
	svc := newTestOtpService(st)

	code, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("code length = %d, want 6", len(code))
	}

	outcome, err := svc.Verify(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome != service.OtpValid {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpValid)
	}
}

func TestOtpIssueValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestOtpService(newMemOtpStore())

	if _, err := svc.Issue(ctx, "", domain.OtpPurposePasswordReset); err == nil {
		t.Fatal("Issue accepted an empty phone")
	}
	if _, err := svc.Issue(ctx, "+919876543210", "unknown-purpose"); err == nil {
		t.Fatal("Issue accepted an unknown purpose")
	}
}

func TestOtpReissueSupersedes(t *testing.T) {
	ctx := context.Background()
	st := newMemOtpStore()
	svc := newTestOtpService(st)

	first, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if outcome, _ := svc.Verify(ctx, "+919876543210", domain.OtpPurposePasswordReset, first); outcome == service.OtpValid && first != second {
		t.Fatal("superseded code still verifies")
	}
	if outcome, _ := svc.Verify(ctx, "+919876543210", domain.OtpPurposePasswordReset, second); outcome != service.OtpValid {
		t.Fatalf("latest code outcome = %s, want %s", outcome, service.OtpValid)
	}
	if len(st.rows) != 1 {
		t.Fatalf("live challenges = %d, want 1", len(st.rows))
	}
}

func TestOtpPurposesIndependent(t *testing.T) {
	ctx := context.Background()
	svc := newTestOtpService(newMemOtpStore())

	resetCode, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePhoneVerification); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	outcome, err := svc.Verify(ctx, "+919876543210", domain.OtpPurposePasswordReset, resetCode)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome != service.OtpValid {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpValid)
	}
}

func TestOtpExpiry(t *testing.T) {
	ctx := context.Background()
	st := newMemOtpStore()
	svc := newTestOtpService(st)

	now := time.Now().UTC()
	svc.now = func() time.Time { return now }

	code, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.now = func() time.Time { return now.Add(11 * time.Minute) }

	outcome, err := svc.Verify(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome != service.OtpExpired {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpExpired)
	}

	// Expired applies to consumption too.
	outcome, err = svc.VerifyAndConsume(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if outcome != service.OtpExpired {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpExpired)
	}
}

func TestOtpMismatchLeavesChallengeLive(t *testing.T) {
	ctx := context.Background()
	st := newMemOtpStore()
	svc := newTestOtpService(st)

	code, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	outcome, err := svc.VerifyAndConsume(ctx, "+919876543210", domain.OtpPurposePasswordReset, "000000")
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if outcome != service.OtpMismatch {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpMismatch)
	}

	// The right code still redeems afterwards.
	outcome, err = svc.VerifyAndConsume(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if outcome != service.OtpValid {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpValid)
	}
}

func TestOtpConsumeOnce(t *testing.T) {
	ctx := context.Background()
	st := newMemOtpStore()
	svc := newTestOtpService(st)

	code, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	outcome, err := svc.VerifyAndConsume(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if outcome != service.OtpValid {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpValid)
	}

	// Replay of the same code after consumption.
	outcome, err = svc.VerifyAndConsume(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if outcome != service.OtpNotFound {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpNotFound)
	}
}

func TestOtpConsumeRaceDowngrades(t *testing.T) {
	ctx := context.Background()
	st := newMemOtpStore()
	svc := newTestOtpService(st)

	code, err := svc.Issue(ctx, "+919876543210", domain.OtpPurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Another request consumes the challenge between this one's verify and
	// delete; the zero-row delete must downgrade the outcome.
	st.afterGet = func() {
		st.afterGet = nil
		delete(st.rows, otpKey{"+919876543210", domain.OtpPurposePasswordReset})
	}

	outcome, err := svc.VerifyAndConsume(ctx, "+919876543210", domain.OtpPurposePasswordReset, code)
	if err != nil {
		t.Fatalf("VerifyAndConsume: %v", err)
	}
	if outcome != service.OtpNotFound {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpNotFound)
	}
}

func TestOtpVerifyUnknownPhone(t *testing.T) {
	ctx := context.Background()
	svc := newTestOtpService(newMemOtpStore())

	outcome, err := svc.Verify(ctx, "+910000000000", domain.OtpPurposePasswordReset, "123456")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if outcome != service.OtpNotFound {
		t.Fatalf("outcome = %s, want %s", outcome, service.OtpNotFound)
	}
}
