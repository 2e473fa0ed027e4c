package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/mentorlink/mentorlink-api/services/account-service/internal/model"
	"github.com/mentorlink/mentorlink-api/services/account-service/internal/repository"
)

const (
	codeLength   = 10
	codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateCode draws a fixed-length code from a 62-symbol alphabet with
// crypto/rand, large enough that guessing within any ttl is negligible.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))

	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}

	return string(buf), nil
}

// codeIssuer implements the one-time code lifecycle shared by account
// activation and password recovery: issue (overwriting any previous code and
// re-arming the expiry timer), verify without consuming, and atomic consume.
type codeIssuer struct {
	codes     repository.OneTimeCodeRepository
	scheduler *ExpiryScheduler
	clock     Clock
}

// Issue mints a fresh code for the account with the given purpose. A ttl of
// zero means the code never expires; a finite ttl also arms the expiry timer
// so the code is cleared even if nothing ever reads it again.
func (i *codeIssuer) Issue(
	ctx context.Context,
	userID bson.ObjectID,
	purpose model.CodePurpose,
	ttl time.Duration,
) (*model.OneTimeCode, error) {
	value, err := generateCode()
	if err != nil {
		return nil, err
	}

	now := i.clock.Now()
	code := &model.OneTimeCode{
		UserID:   userID,
		Code:     value,
		Purpose:  purpose,
		IssuedAt: now,
	}
	if ttl > 0 {
		code.ExpiresAt = now.Add(ttl)
	}

	stored, err := i.codes.Replace(ctx, code)
	if err != nil {
		return nil, err
	}

	// Replacing a code replaces its timer too, so a stale timer can never
	// clip the new code's ttl.
	if ttl > 0 {
		i.scheduler.Schedule(userID.Hex(), ttl)
	} else {
		i.scheduler.Cancel(userID.Hex())
	}

	return stored, nil
}

// Verify reports whether the presented value matches the account's live code
// for the given purpose and is still within its ttl. It never consumes and
// never errors on a missing code; both simply verify as false.
func (i *codeIssuer) Verify(
	ctx context.Context,
	userID bson.ObjectID,
	code string,
	purpose model.CodePurpose,
) (bool, error) {
	stored, err := i.codes.GetByUserID(ctx, userID.Hex())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}

	if stored.Code == "" || stored.Code != code || stored.Purpose != purpose {
		return false, nil
	}

	if stored.Expired(i.clock.Now()) {
		return false, nil
	}

	return true, nil
}

// Consume atomically redeems the account's live code. Of any number of
// concurrent callers presenting the same value, exactly one gets the record
// back; the rest observe mongo.ErrNoDocuments. The caller must still check
// the returned record's expiry.
func (i *codeIssuer) Consume(
	ctx context.Context,
	userID bson.ObjectID,
	code string,
	purpose model.CodePurpose,
) (*model.OneTimeCode, error) {
	consumed, err := i.codes.Consume(ctx, userID.Hex(), code, purpose)
	if err != nil {
		return nil, err
	}

	i.scheduler.Cancel(userID.Hex())

	return consumed, nil
}

// Clear drops the account's live code and timer. Clearing when nothing is
// stored is a no-op.
func (i *codeIssuer) Clear(ctx context.Context, userID bson.ObjectID) error {
	i.scheduler.Cancel(userID.Hex())
	return i.codes.DeleteByUserID(ctx, userID.Hex())
}
