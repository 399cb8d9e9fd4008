package accounts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/perawallet/pera-wallet-core/internal/accounts"
	"github.com/perawallet/pera-wallet-core/internal/logger"
	"github.com/perawallet/pera-wallet-core/internal/mocks"
	"github.com/perawallet/pera-wallet-core/internal/types"
)

func init() {
	logger.InitLogger("test")
}

const testAddr = "TESTADDRESS"

func TestService_SnapshotIsCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockAccountDataProvider(ctrl)
	svc := accounts.NewService(provider)

	provider.EXPECT().AccountSnapshot(gomock.Any(), testAddr).
		Return(&types.AccountSnapshot{Address: testAddr, Balance: 500_000}, nil).
		Times(1)

	first, err := svc.AccountSnapshot(context.Background(), testAddr)
	require.NoError(t, err)
	second, err := svc.AccountSnapshot(context.Background(), testAddr)
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestService_InvalidateForcesRefetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockAccountDataProvider(ctrl)
	svc := accounts.NewService(provider)

	provider.EXPECT().AccountSnapshot(gomock.Any(), testAddr).
		Return(&types.AccountSnapshot{Address: testAddr, Balance: 500_000}, nil).
		Times(2)

	_, err := svc.AccountSnapshot(context.Background(), testAddr)
	require.NoError(t, err)

	svc.Invalidate(testAddr)

	_, err = svc.AccountSnapshot(context.Background(), testAddr)
	require.NoError(t, err)
}

func TestService_PendingSendLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockAccountDataProvider(ctrl)
	svc := accounts.NewService(provider)

	assert.False(t, svc.HasPendingSend(testAddr, 0))

	svc.MarkPendingSend(testAddr, 0)
	assert.True(t, svc.HasPendingSend(testAddr, 0))

	// The mark is scoped to (address, asset).
	assert.False(t, svc.HasPendingSend(testAddr, 42))
	assert.False(t, svc.HasPendingSend("OTHER", 0))

	svc.ClearPendingSend(testAddr, 0)
	assert.False(t, svc.HasPendingSend(testAddr, 0))
}

func TestService_MarkPendingSendDropsSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockAccountDataProvider(ctrl)
	svc := accounts.NewService(provider)

	provider.EXPECT().AccountSnapshot(gomock.Any(), testAddr).
		Return(&types.AccountSnapshot{Address: testAddr, Balance: 500_000}, nil)
	provider.EXPECT().AccountSnapshot(gomock.Any(), testAddr).
		Return(&types.AccountSnapshot{Address: testAddr, Balance: 400_000}, nil)

	_, err := svc.AccountSnapshot(context.Background(), testAddr)
	require.NoError(t, err)

	svc.MarkPendingSend(testAddr, 0)

	refetched, err := svc.AccountSnapshot(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(400_000), refetched.Balance)
}
