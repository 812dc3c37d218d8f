//go:build integration

package service_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"enrollment/internal/document/storage"
	"enrollment/internal/intake/messages"
	"enrollment/internal/intake/models"
	"enrollment/internal/intake/service"
	"enrollment/internal/intake/service/mocks"
	"enrollment/internal/intake/store/session"
	"enrollment/pkg/testutil/containers"
)

// A write to the session key while SUBMIT is filing must not cause a second
// filing, and the filed id must end up on the session.
func TestSubmitFilesOnceOnSharedRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	store := session.NewRedis(rc.Client, time.Hour)

	_, err := store.Execute(ctx, "sess-submit", func(sess *models.Session) error {
		sess.Step = models.StepSubmit
		sess.Flags.ConsentAccepted = true
		sess.Flags.DeclarationAccepted = true
		sess.Identity = models.Identity{PrimaryID: "482177301294", SecondaryID: "ABCDE1234F"}
		sess.Personal.Name = "Sunita Rao"
		sess.Income.AnnualIncome = decimal.NewFromInt(180000)
		return nil
	})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	finalizer := mocks.NewMockFinalizer(ctrl)
	finalizer.EXPECT().Finalize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, sess *models.Session) (string, error) {
			stale := *sess
			stale.Contact.Email = "other-turn@example.com"
			payload, err := json.Marshal(&stale)
			require.NoError(t, err)
			require.NoError(t, rc.Client.Set(ctx, "intake:session:sess-submit", payload, time.Hour).Err())
			return "APP-20261018-AAAAAAAA", nil
		}).Times(1)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	machine := service.New(store, mocks.NewMockAnalyzer(ctrl), mocks.NewMockLinkage(ctrl),
		storage.NewInMemoryStore(), finalizer, messages.NewCatalog(logger), logger)

	r := machine.Handle(ctx, models.Input{SessionID: "sess-submit", Message: "SUBMIT"})
	assert.Equal(t, models.ResponseCompleted, r.Kind, r.Text)
	assert.Equal(t, "APP-20261018-AAAAAAAA", r.ApplicationID)

	got, err := store.Get(ctx, "sess-submit")
	require.NoError(t, err)
	assert.Equal(t, models.StepCompleted, got.Step)
	assert.Equal(t, "APP-20261018-AAAAAAAA", got.ApplicationID)
}
