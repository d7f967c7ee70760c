package impl

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"time"

	"vaanikaam/internal/domain"
	"vaanikaam/internal/observability/metrics"
	"vaanikaam/internal/service"
	"vaanikaam/internal/store"
)

type OtpServiceImpl struct {
	Store  otpDataStore
	Hasher service.SecretHasher
	TTL    time.Duration

	now func() time.Time // overridable in tests
}

func NewOtpService(st *store.Store, hasher service.SecretHasher, ttl time.Duration) *OtpServiceImpl {
	return &OtpServiceImpl{
		Store:  gormOtpAdapter{store: st},
		Hasher: hasher,
		TTL:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type otpDataStore interface {
	WithTx(ctx context.Context, fn func(tx otpChallengeStore) error) error
	Challenges() otpChallengeStore
}

type otpChallengeStore interface {
	Upsert(ctx context.Context, c *domain.OtpChallenge) error
	Get(ctx context.Context, phone string, purpose domain.OtpPurpose) (*domain.OtpChallenge, error)
	DeleteAll(ctx context.Context, phone string, purpose domain.OtpPurpose) (int64, error)
}

type gormOtpAdapter struct {
	store *store.Store
}

func (g gormOtpAdapter) WithTx(ctx context.Context, fn func(tx otpChallengeStore) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(tx.OtpChallenges())
	})
}

func (g gormOtpAdapter) Challenges() otpChallengeStore { return g.store.OtpChallenges() }

// randomCode draws a uniform 6-digit code in [100000, 999999]; no leading
// zeros, so the string form is unambiguous.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}

func (o *OtpServiceImpl) Issue(ctx context.Context, phone string, purpose domain.OtpPurpose) (string, error) {
	if phone == "" {
		return "", ErrEmptyPhone
	}
	if purpose != domain.OtpPurposePhoneVerification && purpose != domain.OtpPurposePasswordReset {
		return "", ErrInvalidPurpose
	}

	code, err := randomCode()
	if err != nil {
		return "", err
	}
	digest, err := o.Hasher.Hash(code)
	if err != nil {
		return "", err
	}

	// The upsert supersedes any prior live challenge for (phone, purpose):
	// exactly one row survives even under concurrent issues.
	challenge := &domain.OtpChallenge{
		Phone:     phone,
		Purpose:   purpose,
		CodeHash:  digest,
		ExpiresAt: o.now().Add(o.TTL),
	}
	if err := o.Store.Challenges().Upsert(ctx, challenge); err != nil {
		return "", err
	}

	metrics.OtpIssuedTotal.WithLabelValues(string(purpose)).Inc()
	return code, nil
}

func (o *OtpServiceImpl) Verify(ctx context.Context, phone string, purpose domain.OtpPurpose, candidate string) (service.OtpOutcome, error) {
	outcome, err := o.verify(ctx, o.Store.Challenges(), phone, purpose, candidate)
	if err != nil {
		return outcome, err
	}
	metrics.OtpVerifiedTotal.WithLabelValues(string(purpose), string(outcome)).Inc()
	return outcome, nil
}

func (o *OtpServiceImpl) verify(ctx context.Context, challenges otpChallengeStore, phone string, purpose domain.OtpPurpose, candidate string) (service.OtpOutcome, error) {
	challenge, err := challenges.Get(ctx, phone, purpose)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return service.OtpNotFound, nil
		}
		return service.OtpNotFound, err
	}
	// Expiry wins over a matching hash: stale codes are inert even before
	// cleanup removes the row.
	if challenge.Expired(o.now()) {
		return service.OtpExpired, nil
	}
	if !o.Hasher.Verify(candidate, challenge.CodeHash) {
		return service.OtpMismatch, nil
	}
	return service.OtpValid, nil
}

func (o *OtpServiceImpl) Consume(ctx context.Context, phone string, purpose domain.OtpPurpose) (bool, error) {
	rows, err := o.Store.Challenges().DeleteAll(ctx, phone, purpose)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// VerifyAndConsume redeems a code at most once: the check and the delete run
// in one transaction, and losing the delete race downgrades the outcome.
func (o *OtpServiceImpl) VerifyAndConsume(ctx context.Context, phone string, purpose domain.OtpPurpose, candidate string) (service.OtpOutcome, error) {
	var outcome service.OtpOutcome
	err := o.Store.WithTx(ctx, func(tx otpChallengeStore) error {
		var err error
		outcome, err = o.verify(ctx, tx, phone, purpose, candidate)
		if err != nil || outcome != service.OtpValid {
			return err
		}
		rows, err := tx.DeleteAll(ctx, phone, purpose)
		if err != nil {
			return err
		}
		if rows == 0 {
			outcome = service.OtpNotFound
		}
		return nil
	})
	if err != nil {
		return outcome, err
	}
	metrics.OtpVerifiedTotal.WithLabelValues(string(purpose), string(outcome)).Inc()
	return outcome, nil
}
